package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/YinkTech/peerreview/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText("   "); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_PlainTextUnchanged(t *testing.T) {
	input := "be more vocal"
	if got := htmlsanitize.PlainText(input); got != input {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestPlainText_KeepsAmpersandsAndQuotes(t *testing.T) {
	input := `Tom & Jerry said "hi"`
	if got := htmlsanitize.PlainText(input); got != input {
		t.Errorf("expected %q, got %q", input, got)
	}
}

func TestPlainText_StripsTags(t *testing.T) {
	got := htmlsanitize.PlainText("<p><strong>Speak</strong> up</p>")
	if got != "Speak up" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestPlainText_RemovesScript(t *testing.T) {
	got := htmlsanitize.PlainText("ok<script>alert('xss')</script>")
	if strings.Contains(got, "alert") || strings.Contains(got, "script") {
		t.Errorf("expected script removed, got %q", got)
	}
	if !strings.Contains(got, "ok") {
		t.Errorf("expected safe text preserved, got %q", got)
	}
}

func TestPlainText_TagsOnlyBecomesEmpty(t *testing.T) {
	if got := htmlsanitize.PlainText("<b></b><i> </i>"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestPlainText_DecodesEscapedMarkup(t *testing.T) {
	got := htmlsanitize.PlainText("use &lt;b&gt; for bold")
	if got != "use <b> for bold" {
		t.Errorf("expected entity-decoded text, got %q", got)
	}
}
