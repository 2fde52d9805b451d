package backend

import (
	"testing"

	"github.com/spetr/parsekit/pkg/tree"
)

type fakeBackend struct{ name string }

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Compile(string) (Parser, error) { return &fakeParser{}, nil }

type fakeParser struct{}

func (p *fakeParser) Parse(string) (*tree.Tree, error)  { return &tree.Tree{Rule: "start"}, nil }
func (p *fakeParser) Scan(string) ([]tree.Token, error) { return nil, nil }

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(Options) (Backend, error) {
		return &fakeBackend{name: "fake"}, nil
	})

	b, err := r.Create("fake", Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Name() != "fake" {
		t.Errorf("Name() = %q, want %q", b.Name(), "fake")
	}
}

func TestRegistryUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("nope", Options{}); err == nil {
		t.Fatal("Create with unknown name should fail")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.Register(name, func(Options) (Backend, error) { return nil, nil })
	}
	names := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}
