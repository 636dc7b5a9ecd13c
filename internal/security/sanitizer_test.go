package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unsafeAfterClean = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)</script>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`[<>"'&]`),
}

var adversarial = []string{
	"<script>alert(1)</script>Cardiology",
	"<SCRIPT type=\"text/javascript\">\nalert('x')\n</SCRIPT>Ward",
	"<scr<script>ipt>alert(1)</script>",
	"javascript:alert(document.cookie)",
	"JaVaScRiPt :alert(1)",
	"vbscript:msgbox(1)",
	"javajavascript:script:alert(1)",
	"<img src=x onerror=alert(1)>",
	"<a href=\"#\" onclick = \"steal()\">click</a>",
	"oonclick=nclick=alert(1)",
	"java<script:alert(1)",
	"Tom & Jerry's \"show\"",
	"&lt;script&gt;alert(1)&lt;/script&gt;",
	"plain text",
	"   padded   ",
	nest("javascript:", "java", "script:", 9) + "alert(1)",
	nest("onclick=", "o", "nclick=", 9) + "x",
	nest("<script>", "<scr", "ipt>", 12) + "alert(1)</script>",
	nest("javascript:", "java", "script:", 64) + "alert(1)",
}

// nest wraps seed depth times so that each removal reassembles the pattern.
func nest(seed, prefix, suffix string, depth int) string {
	s := seed
	for range depth {
		s = prefix + s + suffix
	}
	return s
}

func TestCleanExamples(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty passes through", "", ""},
		{"script block removed", "<script>alert(1)</script>Cardiology", "Cardiology"},
		{"whitespace trimmed", "  Cardiology  ", "Cardiology"},
		{"markup stripped, text kept", "<b>Bold</b> text", "Bold text"},
		{"protocol prefix removed", "javascript:alert(1)", "alert(1)"},
		{"event handler tag removed", "<img src=x onerror=alert(1)>", ""},
		{"quote and ampersand stripped", "Tom & Jerry's \"show\"", "Tom  Jerrys show"},
		{"plain text untouched", "General Medicine", "General Medicine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Clean(tt.in))
		})
	}
}

func TestCleanUnwindsDeepNesting(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, "alert(1)", s.Clean(nest("javascript:", "java", "script:", 9)+"alert(1)"))
	assert.Equal(t, "x", s.Clean(nest("onclick=", "o", "nclick=", 9)+"x"))
}

func TestCleanIsIdempotent(t *testing.T) {
	s := NewSanitizer()
	for _, in := range adversarial {
		once := s.Clean(in)
		assert.Equal(t, once, s.Clean(once), "input %q", in)
	}
}

func TestCleanRemovesUnsafePatterns(t *testing.T) {
	s := NewSanitizer()
	for _, in := range adversarial {
		out := s.Clean(in)
		for _, re := range unsafeAfterClean {
			assert.False(t, re.MatchString(out), "input %q left %q matching %s", in, out, re)
		}
	}
}

type form struct {
	Name     string  `json:"name"`
	Notes    *string `json:"notes"`
	Missing  *string `json:"missing"`
	Password string  `json:"-" sanitize:"-"`
	Count    int     `json:"count"`
	embedded
}

type embedded struct {
	Remarks string `json:"remarks"`
}

func TestCleanStruct(t *testing.T) {
	s := NewSanitizer()
	notes := " <i>fine</i> "
	f := &form{
		Name:     "<script>x</script>Radiology",
		Notes:    &notes,
		Password: "p<a>ss&word",
		Count:    3,
		embedded: embedded{Remarks: "onload=go()"},
	}

	s.CleanStruct(f)

	assert.Equal(t, "Radiology", f.Name)
	require.NotNil(t, f.Notes)
	assert.Equal(t, "fine", *f.Notes)
	assert.Nil(t, f.Missing)
	assert.Equal(t, "p<a>ss&word", f.Password, "tagged fields are left alone")
	assert.Equal(t, "go()", f.Remarks)
	assert.Equal(t, 3, f.Count)
}

func TestCleanStructIgnoresNonPointers(t *testing.T) {
	s := NewSanitizer()
	assert.NotPanics(t, func() {
		s.CleanStruct(form{Name: "x"})
		s.CleanStruct(nil)
		var nilForm *form
		s.CleanStruct(nilForm)
	})
}
