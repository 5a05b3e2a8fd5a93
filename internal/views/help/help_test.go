package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

var bindings = []key.Binding{
	key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("ctrl+q", "destroy box")),
	key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "connection log")),
	key.NewBinding(key.WithKeys("x")),
}

func TestMarkdownListsBindings(t *testing.T) {
	md := Markdown(bindings)
	if !strings.Contains(md, "| `ctrl+q` | destroy box |") {
		t.Errorf("markdown missing ctrl+q row:\n%s", md)
	}
	if !strings.Contains(md, "| `f2` | connection log |") {
		t.Errorf("markdown missing f2 row:\n%s", md)
	}
	if strings.Count(md, "\n| `") != 2 {
		t.Errorf("bindings without help should be skipped:\n%s", md)
	}
}

func TestRender(t *testing.T) {
	out, err := Render(bindings, 80)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "destroy") {
		t.Errorf("rendered help missing binding description:\n%s", out)
	}
}

func TestViewHasFooter(t *testing.T) {
	if v := View(bindings, 80); !strings.Contains(v, "esc:close") {
		t.Error("help panel should show how to close it")
	}
}
