package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "medplant/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, audit.Entry{EntityType: "DEPARTMENT", Action: "DEPARTMENT_CREATE", RecordID: "1"}))
	require.NoError(t, s.Append(ctx, audit.Entry{EntityType: "DEPARTMENT", Action: "DEPARTMENT_UPDATE", RecordID: "1"}))
	require.NoError(t, s.Append(ctx, audit.Entry{EntityType: "EMPLOYEE", Action: "EMPLOYEE_CREATE", RecordID: "9"}))

	byEntity, err := s.ListByEntity(ctx, "DEPARTMENT", "1")
	require.NoError(t, err)
	assert.Len(t, byEntity, 2)

	allDepts, err := s.ListByEntity(ctx, "DEPARTMENT", "")
	require.NoError(t, err)
	assert.Len(t, allDepts, 2)

	byAction, err := s.ListByAction(ctx, "EMPLOYEE_CREATE")
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "9", byAction[0].RecordID)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "EMPLOYEE_CREATE", recent[0].Action)
	assert.Equal(t, "DEPARTMENT_UPDATE", recent[1].Action)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStoreConcurrentAppend(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(context.Background(), audit.Entry{Action: "X"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.Len())
}
