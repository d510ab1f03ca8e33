package avm1

import (
	"testing"

	"github.com/chazu/avm/storage"
)

func ptr(s string) *string { return &s }

func TestSharedObjectName(t *testing.T) {
	tests := []struct {
		desc      string
		movieURL  string
		name      string
		localPath *string
		secure    bool
		want      string
		ok        bool
	}{
		{"plain", "http://example.com/games/a.swf", "save", nil, false, "example.com/games/a.swf/save", true},
		{"local path", "http://example.com/games/a.swf", "save", ptr("/games"), false, "example.com/games/save", true},
		{"root path", "http://example.com/games/a.swf", "save", ptr("/"), false, "example.com/save", true},
		{"file movie", "file:///tmp/a.swf", "save", nil, false, "localhost/tmp/a.swf/save", true},
		{"slash in name", "http://example.com/a.swf", "x/y", ptr("/"), false, "example.com/#x/y", true},
		{"empty name", "http://example.com/a.swf", "", nil, false, "", false},
		{"bad character", "http://example.com/a.swf", "a b", nil, false, "", false},
		{"percent", "http://example.com/a.swf", "50%", nil, false, "", false},
		{"foreign local path", "http://example.com/games/a.swf", "save", ptr("/other"), false, "", false},
		{"secure over http", "http://example.com/a.swf", "save", nil, true, "", false},
		{"secure over https", "https://example.com/a.swf", "save", nil, true, "example.com/a.swf/save", true},
		{"dot segment", "http://example.com/.hidden/a.swf", "save", nil, false, "", false},
	}
	for _, tt := range tests {
		got, ok := sharedObjectName(tt.movieURL, tt.name, tt.localPath, tt.secure)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: sharedObjectName = (%q, %v), want (%q, %v)", tt.desc, got, ok, tt.want, tt.ok)
		}
	}
}

func getLocal(t *testing.T, act *Activation, name string) *SharedObject {
	t.Helper()
	v := mustCall(t, act, global(t, act, "SharedObject"), "getLocal", String(name), String("/"))
	so, ok := v.AsObject().(*SharedObject)
	if !ok {
		t.Fatalf("getLocal(%q) = %v", name, v.debugString())
	}
	return so
}

func newSharedObjectHarness(t *testing.T, store storage.Backend) *harness {
	h := newHarness(t, 8)
	h.ctx.MovieURL = "http://example.com/movie.swf"
	h.ctx.Storage = store
	return h
}

func TestSharedObjectRoundTrip(t *testing.T) {
	store := storage.NewMemory()

	h := newSharedObjectHarness(t, store)
	h.with(func(act *Activation) {
		so := getLocal(t, act, "prefs")
		data, _ := so.data(act)
		_ = Set(act, data, "name", String("ada"))
		_ = Set(act, data, "score", Number(99))
		_ = Set(act, data, "list", ObjectValue(NewArray(act, numbers(1, 2, 3))))
		_ = Set(act, data, "when", ObjectValue(NewDateObject(act, 1000)))
		_ = Set(act, data, "fn", ObjectValue(NewFunctionObject(NativeFunction(sharedObjectFunction), act.Prototypes().Function, nil)))

		if again := getLocal(t, act, "prefs"); again != so {
			t.Error("second getLocal returned a different object")
		}
		if v := mustCall(t, act, so, "flush"); !v.b {
			t.Errorf("flush = %v", v.debugString())
		}
	})
	if _, ok := store.Get("example.com/prefs"); !ok {
		t.Fatalf("nothing stored; keys = %v", store.Keys())
	}

	fresh := newSharedObjectHarness(t, store)
	fresh.with(func(act *Activation) {
		data, _ := getLocal(t, act, "prefs").data(act)
		if v, _ := Get(act, data, "name"); mustString(t, act, v) != "ada" {
			t.Errorf("name = %v", v.debugString())
		}
		if v, _ := Get(act, data, "score"); v.n != 99 {
			t.Errorf("score = %v", v.debugString())
		}
		list, _ := Get(act, data, "list")
		if _, ok := list.AsObject().(*ArrayObject); !ok {
			t.Fatalf("list restored as %v", list.debugString())
		}
		if s := mustString(t, act, list); s != "1,2,3" {
			t.Errorf("list = %q", s)
		}
		when, _ := Get(act, data, "when")
		if d, ok := when.AsObject().(*DateObject); !ok || d.millis != 1000 {
			t.Errorf("when = %v", when.debugString())
		}
		if HasProperty(act, data, "fn") {
			t.Error("function was persisted")
		}
	})
}

func TestSharedObjectLegacyJSON(t *testing.T) {
	store := storage.NewMemory()
	store.Put("example.com/old", []byte(`{"level":3,"items":{"__proto__":"Array","length":2,"0":"sword","1":"shield"}}`))

	h := newSharedObjectHarness(t, store)
	h.with(func(act *Activation) {
		data, _ := getLocal(t, act, "old").data(act)
		if v, _ := Get(act, data, "level"); v.n != 3 {
			t.Errorf("level = %v", v.debugString())
		}
		items, _ := Get(act, data, "items")
		if s := mustString(t, act, items); s != "sword,shield" {
			t.Errorf("items = %q", s)
		}
	})
}

func TestSharedObjectClearAndSize(t *testing.T) {
	store := storage.NewMemory()
	h := newSharedObjectHarness(t, store)
	h.with(func(act *Activation) {
		so := getLocal(t, act, "tmp")
		empty := mustCall(t, act, so, "getSize")
		data, _ := so.data(act)
		_ = Set(act, data, "blob", String("some longer text value"))
		if grown := mustCall(t, act, so, "getSize"); grown.n <= empty.n {
			t.Errorf("getSize did not grow: %v then %v", empty.n, grown.n)
		}
		mustCall(t, act, so, "flush")
		mustCall(t, act, so, "clear")
		if HasProperty(act, data, "blob") {
			t.Error("clear left data behind")
		}
	})
	if _, ok := store.Get("example.com/tmp"); ok {
		t.Error("clear did not remove the stored blob")
	}
}

func TestFlushSharedObjectsOnExit(t *testing.T) {
	store := storage.NewMemory()
	h := newSharedObjectHarness(t, store)
	h.with(func(act *Activation) {
		data, _ := getLocal(t, act, "auto").data(act)
		_ = Set(act, data, "x", Number(1))
	})
	h.avm.FlushSharedObjects(h.ctx)
	if _, ok := store.Get("example.com/auto"); !ok {
		t.Error("FlushSharedObjects did not save")
	}
}

func TestFlushSharedObjectsAfterHalt(t *testing.T) {
	store := storage.NewMemory()
	h := newSharedObjectHarness(t, store)
	h.with(func(act *Activation) {
		data, _ := getLocal(t, act, "late").data(act)
		_ = Set(act, data, "x", Number(1))
	})
	h.avm.Halt()
	h.avm.FlushSharedObjects(h.ctx)
	if _, ok := store.Get("example.com/late"); !ok {
		t.Error("a halted VM did not save its shared objects")
	}
}

func TestSharedObjectRejectsBadName(t *testing.T) {
	h := newSharedObjectHarness(t, storage.NewMemory())
	h.with(func(act *Activation) {
		v := mustCall(t, act, global(t, act, "SharedObject"), "getLocal", String("no:colons"))
		if !v.IsNull() {
			t.Errorf("getLocal with a bad name = %v, want null", v.debugString())
		}
	})
}
