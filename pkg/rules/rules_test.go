package rules

import (
	"testing"

	"github.com/goliatone/go-pipewizard/pkg/draft"
)

func TestMaxAboveMin(t *testing.T) {
	t.Parallel()

	v := MaxAboveMin("maxShards", "buffer.kds.autoscaling", "buffer.kds.minCapacity", "buffer.kds.maxCapacity")
	d := draft.New(map[string]any{
		"buffer": map[string]any{
			"kds": map[string]any{
				"autoscaling": true,
				"minCapacity": 5,
				"maxCapacity": 3,
			},
		},
	})

	if res := v.Validate(d); res.Valid {
		t.Fatalf("expected max=3 < min=5 to fail")
	}
	if v.Error() != "maximum shards must be greater than minimum shards" {
		t.Fatalf("unexpected message %q", v.Error())
	}

	d = d.MustSet("buffer.kds.maxCapacity", 10)
	if res := v.Validate(d); !res.Valid {
		t.Fatalf("expected max=10 to pass, got %q", res.Message)
	}

	d = d.MustSet("buffer.kds.maxCapacity", 5)
	if res := v.Validate(d); res.Valid {
		t.Fatalf("expected max == min to fail")
	}

	d = d.MustSet("buffer.kds.autoscaling", false)
	if res := v.Validate(d); !res.Valid {
		t.Fatalf("expected rule to be skipped when autoscaling is off")
	}
}

func TestPositiveInt(t *testing.T) {
	t.Parallel()

	v := PositiveInt("shards", "opensearch.shards", "Shard count")
	cases := []struct {
		value any
		valid bool
	}{
		{1, true},
		{"3", true},
		{0, false},
		{-2, false},
		{1.5, false},
		{"abc", false},
	}
	for _, tc := range cases {
		d := draft.Draft{}.MustSet("opensearch.shards", tc.value)
		if got := v.Validate(d).Valid; got != tc.valid {
			t.Errorf("PositiveInt(%v) valid = %v, want %v", tc.value, got, tc.valid)
		}
	}
	if v.Validate(draft.Draft{}).Valid {
		t.Errorf("expected missing value to fail")
	}
}

func TestBufferRanges(t *testing.T) {
	t.Parallel()

	size := Range("size", "buffer.s3.maxFileSize", "Buffer size", MinBufferSizeMiB, MaxBufferSizeMiB)
	interval := Range("interval", "buffer.s3.uploadInterval", "Buffer interval", MinUploadInterval, MaxUploadInterval)

	for value, want := range map[int]bool{0: false, 1: true, 50: true, 51: false} {
		d := draft.Draft{}.MustSet("buffer.s3.maxFileSize", value)
		if got := size.Validate(d).Valid; got != want {
			t.Errorf("size %d valid = %v, want %v", value, got, want)
		}
	}
	for value, want := range map[int]bool{0: false, 1: true, 86400: true, 86401: false} {
		d := draft.Draft{}.MustSet("buffer.s3.uploadInterval", value)
		if got := interval.Validate(d).Valid; got != want {
			t.Errorf("interval %d valid = %v, want %v", value, got, want)
		}
	}
}

func TestIndexPrefix(t *testing.T) {
	t.Parallel()

	v := IndexPrefix("indexPrefix", "opensearch.indexPrefix")
	for value, want := range map[string]bool{
		"app-logs":  true,
		"a_1":       true,
		"":          false,
		"App":       false,
		"1app":      false,
		"app logs":  false,
		"app*":      false,
		"nginx-log": true,
	} {
		d := draft.Draft{}.MustSet("opensearch.indexPrefix", value)
		if got := v.Validate(d).Valid; got != want {
			t.Errorf("IndexPrefix(%q) valid = %v, want %v", value, got, want)
		}
	}
}

func TestS3Prefix(t *testing.T) {
	t.Parallel()

	v := S3Prefix("prefix", "source.s3.prefix")
	for value, want := range map[string]bool{
		"":                 true,
		"logs/":            true,
		"logs/*/app.log":   true,
		"/logs":            false,
		"logs/*/*.log":     false,
		"AWSLogs/*":        true,
		"logs/2024/01/01/": true,
	} {
		d := draft.Draft{}.MustSet("source.s3.prefix", value)
		if got := v.Validate(d).Valid; got != want {
			t.Errorf("S3Prefix(%q) valid = %v, want %v", value, got, want)
		}
	}
}

func TestLifecycleOrder(t *testing.T) {
	t.Parallel()

	v := LifecycleOrder("lifecycle", "opensearch.warmAge", "opensearch.coldAge", "opensearch.retainAge")
	base := draft.Draft{}

	ok := base.MustSet("opensearch.warmAge", 7).MustSet("opensearch.coldAge", 30).MustSet("opensearch.retainAge", 180)
	if res := v.Validate(ok); !res.Valid {
		t.Fatalf("expected ordered ages to pass: %s", res.Message)
	}

	bad := ok.MustSet("opensearch.coldAge", 5)
	if res := v.Validate(bad); res.Valid {
		t.Fatalf("expected cold <= warm to fail")
	}

	skipped := ok.MustSet("opensearch.coldAge", 0)
	if res := v.Validate(skipped); !res.Valid {
		t.Fatalf("expected zero cold age to be ignored: %s", res.Message)
	}
}

func TestEmails(t *testing.T) {
	t.Parallel()

	v := Emails("emails", "monitor.alarms", "monitor.emails")
	off := draft.Draft{}
	if !v.Validate(off).Valid {
		t.Fatalf("expected disabled alarms to pass")
	}

	on := off.MustSet("monitor.alarms", true)
	if v.Validate(on).Valid {
		t.Fatalf("expected missing emails to fail")
	}
	if v.Validate(on.MustSet("monitor.emails", "ops@example.com, nope")).Valid {
		t.Fatalf("expected invalid address to fail")
	}
	if !v.Validate(on.MustSet("monitor.emails", []any{"ops@example.com"})).Valid {
		t.Fatalf("expected valid address list to pass: %s", v.Error())
	}
}

func TestTags(t *testing.T) {
	t.Parallel()

	v := Tags("tags", "tags")
	d := draft.Draft{}.
		MustSet("tags.0.key", "team").MustSet("tags.0.value", "ops").
		MustSet("tags.1.key", "env").MustSet("tags.1.value", "prod")
	if !v.Validate(d).Valid {
		t.Fatalf("expected unique tags to pass: %s", v.Error())
	}
	if v.Validate(d.MustSet("tags.1.key", "team")).Valid {
		t.Fatalf("expected duplicated key to fail")
	}
	if v.Validate(d.MustSet("tags.1.key", "")).Valid {
		t.Fatalf("expected empty key to fail")
	}
}

func TestWhen(t *testing.T) {
	t.Parallel()

	inner := Range("size", "buffer.s3.maxFileSize", "Buffer size", 1, 50)
	v := When(Equals("buffer.type", "S3"), inner, "buffer.type")

	d := draft.Draft{}.MustSet("buffer.type", "KDS").MustSet("buffer.s3.maxFileSize", 500)
	if !v.Validate(d).Valid {
		t.Fatalf("expected guard to skip non-S3 buffers")
	}
	if v.Validate(d.MustSet("buffer.type", "S3")).Valid {
		t.Fatalf("expected guard to apply for S3 buffers")
	}
	if !v.DependsOn("buffer.type") {
		t.Fatalf("expected guard path in dependencies")
	}
}
