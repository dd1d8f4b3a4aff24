package str

import (
	"context"
	stderrors "errors"
	"slices"
	"testing"
	"unicode/utf8"

	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/foreign"
	"github.com/wippyai/ffi-bridge/handle"
	"github.com/wippyai/ffi-bridge/result"
	"github.com/wippyai/ffi-bridge/vec"
)

func newBridge(t testing.TB) (*foreign.Runtime, *Bridge) {
	t.Helper()
	rt, err := foreign.New(context.Background(), foreign.Config{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	if err := foreign.RegisterStrings(rt); err != nil {
		t.Fatal(err)
	}
	b, err := Bind(rt, rt.Heap())
	if err != nil {
		t.Fatal(err)
	}
	return rt, b
}

func expectTrap(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		e, ok := errors.AsTrap(recover())
		if !ok || e.Kind != kind {
			t.Fatalf("expected %s trap, got %v", kind, e)
		}
	}()
	fn()
}

func TestRoundTrip(t *testing.T) {
	_, b := newBridge(t)
	tests := []string{"", "hello", "héllo wörld", "日本語", "emoji 🎉", "a\x00b"}
	for _, in := range tests {
		s := b.FromString(in)
		if got := s.String(); got != in {
			t.Errorf("round trip %q = %q", in, got)
		}
		if s.Len() != uint(len(in)) {
			t.Errorf("Len(%q) = %d", in, s.Len())
		}
		if s.AsStr().Len() != uint32(len(in)) {
			t.Errorf("AsStr().Len(%q) = %d", in, s.AsStr().Len())
		}
		s.Free()
	}
}

func TestFreeReleasesStorage(t *testing.T) {
	rt, b := newBridge(t)
	objects := rt.Objects().Len()
	live := rt.Heap().Stats().LiveBytes

	s := b.FromString("some text")
	s.Free()
	s.Free()

	if rt.Objects().Len() != objects {
		t.Errorf("objects = %d, want %d", rt.Objects().Len(), objects)
	}
	if got := rt.Heap().Stats().LiveBytes; got != live {
		t.Errorf("live bytes = %d, want %d", got, live)
	}
}

func TestTrim(t *testing.T) {
	_, b := newBridge(t)
	tests := []struct{ in, want string }{
		{"  padded\t\n", "padded"},
		{"none", "none"},
		{"   ", ""},
		{"", ""},
		{" wide　", "wide"},
	}
	for _, tt := range tests {
		s := b.FromString(tt.in)
		if got := s.Trim().String(); got != tt.want {
			t.Errorf("Trim(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := s.String(); got != tt.in {
			t.Errorf("Trim must not modify the string: %q", got)
		}
		s.Free()
	}
}

func TestFromBytes(t *testing.T) {
	rt, b := newBridge(t)
	h := rt.Heap()

	ptr, err := h.AllocBytes([]byte("bytes"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Free(ptr, 5, 1)

	s := b.FromBytes(ptr, 5)
	defer s.Free()
	if s.String() != "bytes" {
		t.Errorf("FromBytes = %q", s.String())
	}
	if s.AsPtr() == ptr {
		t.Error("FromBytes must copy into the string's own buffer")
	}
}

func TestFromBytes_InvalidUTF8Traps(t *testing.T) {
	rt, b := newBridge(t)
	h := rt.Heap()
	ptr, err := h.AllocBytes([]byte{0xff, 0xfe, 'a'})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Free(ptr, 3, 1)

	objects := rt.Objects().Len()
	expectTrap(t, errors.KindInvalidUTF8, func() { b.FromBytes(ptr, 3) })
	if rt.Objects().Len() != objects {
		t.Error("a rejected string must not be created")
	}

	expectTrap(t, errors.KindInvalidUTF8, func() { _ = b.View(abi.Str{Start: ptr, Len: 3}).String() })
	expectTrap(t, errors.KindInvalidUTF8, func() { b.FromString("bad \xff") })
}

func TestViewEqual(t *testing.T) {
	_, b := newBridge(t)
	x := b.FromString("same")
	y := b.FromString("same")
	z := b.FromString("other")
	defer x.Free()
	defer y.Free()
	defer z.Free()

	if !x.Equal(y) {
		t.Error("equal contents should compare equal")
	}
	if x.Equal(z) {
		t.Error("different contents should differ")
	}
	if x.AsStr().Raw() == y.AsStr().Raw() {
		t.Error("distinct strings must have distinct buffers")
	}
	padded := b.FromString("  same ")
	defer padded.Free()
	if !padded.Trim().Equal(x.AsStr()) {
		t.Error("trimmed view should equal")
	}
}

func TestBorrowDoesNotFree(t *testing.T) {
	_, b := newBridge(t)
	s := b.FromString("owned")
	defer s.Free()

	ref := s.AsRef()
	if ref.Owns() || ref.Handle().Mode() != handle.Borrowed {
		t.Fatal("AsRef should borrow")
	}
	ref.Free()
	if s.String() != "owned" {
		t.Error("string destroyed through a borrow")
	}
}

func TestStringVector(t *testing.T) {
	rt, b := newBridge(t)
	objects := rt.Objects().Len()

	v := vec.New(b.Witness())
	words := []string{"alpha", "beta", "gamma"}
	for _, w := range words {
		s := b.FromString(w)
		v.Push(s)
		if s.Owns() {
			t.Fatal("push must move the string into the vector")
		}
	}

	var got []string
	for s := range v.Values() {
		got = append(got, s.String())
	}
	if !slices.Equal(got, words) {
		t.Errorf("Values = %v", got)
	}

	last := v.Pop().Unwrap()
	if !last.Owns() || last.String() != "gamma" {
		t.Errorf("Pop = %v", last)
	}
	last.Free()

	v.Free()
	if rt.Objects().Len() != objects {
		t.Errorf("objects = %d, want %d", rt.Objects().Len(), objects)
	}
}

func TestStringAsError(t *testing.T) {
	_, b := newBridge(t)
	res := result.Err[uint32](b.FromString("file not found"))

	_, err := res.Unpack()
	if err == nil || err.Error() != "file not found" {
		t.Fatalf("Unpack error = %v", err)
	}
	var f *result.Failure[*String]
	if !stderrors.As(err, &f) {
		t.Fatal("errors.As should find the failure")
	}
	f.Value.Free()
}

func FuzzRoundTrip(f *testing.F) {
	_, b := newBridge(f)
	for _, seed := range []string{"", "ascii", "ünïcödé", "\t trim \n"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		if !utf8.ValidString(in) {
			t.Skip()
		}
		s := b.FromString(in)
		defer s.Free()
		if got := s.String(); got != in {
			t.Fatalf("round trip %q = %q", in, got)
		}
		if s.Len() != uint(len(in)) {
			t.Fatalf("Len = %d, want %d", s.Len(), len(in))
		}
	})
}
