package validator

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pipewizard/pkg/draft"
)

func requiredPrefix(d draft.Draft) error {
	if d.String("opensearch.indexPrefix") == "" {
		return errors.New("index prefix is required")
	}
	return nil
}

func TestValidateRecordsAndClearsError(t *testing.T) {
	t.Parallel()

	v := New("indexPrefix", requiredPrefix, On("opensearch.indexPrefix"))
	if v.Error() != "" {
		t.Fatalf("expected no error before first run")
	}

	res := v.Validate(draft.Draft{})
	if res.Valid || v.Error() != "index prefix is required" {
		t.Fatalf("expected failing result, got %+v (error %q)", res, v.Error())
	}

	d := draft.Draft{}.MustSet("opensearch.indexPrefix", "app")
	if res := v.Validate(d); !res.Valid || v.Error() != "" {
		t.Fatalf("expected error cleared, got %+v (error %q)", res, v.Error())
	}
}

func TestValidateConvertsPanicsAndEmptyMessages(t *testing.T) {
	t.Parallel()

	panicking := New("boom", func(draft.Draft) error { panic("bad state") })
	if res := panicking.Validate(draft.Draft{}); res.Valid || res.Message != "bad state" {
		t.Fatalf("expected panic converted into failure, got %+v", res)
	}

	silent := New("silent", func(draft.Draft) error { return errors.New(" ") }, WithMessage("must be set"))
	if res := silent.Validate(draft.Draft{}); res.Message != "must be set" {
		t.Fatalf("expected default message, got %+v", res)
	}

	if res := New("nil", nil).Validate(draft.Draft{}); !res.Valid {
		t.Fatalf("expected nil check to pass")
	}
}

func TestDependsOnIsPrefixAware(t *testing.T) {
	t.Parallel()

	v := New("max", nil, On("buffer.kds.maxCapacity", "tags"))

	cases := map[string]bool{
		"buffer.kds.maxCapacity": true,
		"buffer":                 true,
		"buffer.kds":             true,
		"tags.0.key":             true,
		"buffer.kds.max":         false,
		"buffer.s3":              false,
		"tagsExtra":              false,
	}
	for path, want := range cases {
		if got := v.DependsOn(path); got != want {
			t.Errorf("DependsOn(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestRegistryDispatchOnlyAffected(t *testing.T) {
	t.Parallel()

	calls := map[string]int{}
	counting := func(name string) Check {
		return func(draft.Draft) error {
			calls[name]++
			return nil
		}
	}

	reg := NewRegistry()
	a := New("a", counting("a"), On("opensearch.indexPrefix"))
	b := New("b", counting("b"), On("buffer.kds.minCapacity", "buffer.kds.maxCapacity"))
	c := New("c", counting("c"))
	reg.Register(a, b, c, a)

	if reg.Len() != 3 {
		t.Fatalf("expected duplicate registration ignored, got %d", reg.Len())
	}

	results := reg.Dispatch(draft.Draft{}, "buffer.kds.maxCapacity")
	if len(results) != 1 || results[0].Name != "b" {
		t.Fatalf("expected only b to run, got %+v", results)
	}

	reg.Dispatch(draft.Draft{}, "buffer")
	want := map[string]int{"b": 2}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestRegistryNoStaleErrorAfterFix(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	v := New("indexPrefix", requiredPrefix, On("opensearch.indexPrefix"))
	reg.Register(v)

	d := draft.Draft{}.MustSet("opensearch.indexPrefix", "")
	reg.Dispatch(d, "opensearch.indexPrefix")
	if reg.Errors()["indexPrefix"] == "" {
		t.Fatalf("expected error after dispatching empty prefix")
	}

	d = d.MustSet("opensearch.indexPrefix", "app")
	reg.Dispatch(d, "opensearch.indexPrefix")
	if len(reg.Errors()) != 0 {
		t.Fatalf("expected errors cleared, got %v", reg.Errors())
	}
}

func TestFirstShortCircuits(t *testing.T) {
	t.Parallel()

	ran := false
	fail := New("fail", func(draft.Draft) error { return errors.New("nope") })
	later := New("later", func(draft.Draft) error { ran = true; return nil })

	res, ok := First(draft.Draft{}, fail, later)
	if ok || res.Name != "fail" {
		t.Fatalf("expected first failure reported, got %+v", res)
	}
	if ran {
		t.Fatalf("expected later validator skipped")
	}

	results, ok := All(draft.Draft{}, fail, later)
	if ok || len(results) != 2 || !ran {
		t.Fatalf("expected All to run everything, got %+v", results)
	}
}
