package filter

import (
	"reflect"
	"testing"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

func TestThreadPickerDistinctInOrder(t *testing.T) {
	p := NewThreadPicker(3, nil)
	for _, id := range []string{"t1", "t1", "t2", "t1", "t3", "t4"} {
		if p.Offer(id) {
			break
		}
	}
	want := []string{"t1", "t2", "t3"}
	if got := p.Threads(); !reflect.DeepEqual(got, want) {
		t.Errorf("Threads() = %v, want %v", got, want)
	}
}

func TestThreadPickerSkipsExcluded(t *testing.T) {
	p := NewThreadPicker(2, []string{"t1"})
	for _, id := range []string{"t1", "t2", "t1", "t3"} {
		p.Offer(id)
	}
	want := []string{"t2", "t3"}
	if got := p.Threads(); !reflect.DeepEqual(got, want) {
		t.Errorf("Threads() = %v, want %v", got, want)
	}
	if !p.Full() {
		t.Error("expected picker to be full")
	}
}

func TestThreadPickerDefaultLimit(t *testing.T) {
	p := NewThreadPicker(0, nil)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		p.Offer(id)
	}
	if got := len(p.Threads()); got != DefaultThreadLimit {
		t.Errorf("len(Threads()) = %d, want %d", got, DefaultThreadLimit)
	}
}

func TestWithoutKeys(t *testing.T) {
	emails := []*model.Email{{Key: 1}, {Key: 2}, {Key: 3}}
	got := WithoutKeys(emails, ToSet([]int64{2}))
	if len(got) != 2 || got[0].Key != 1 || got[1].Key != 3 {
		t.Errorf("WithoutKeys = %v, want keys [1 3]", got)
	}
	if got := WithoutKeys(emails, nil); len(got) != 3 {
		t.Errorf("WithoutKeys(nil) returned %d emails, want 3", len(got))
	}
}

func TestToSetEmpty(t *testing.T) {
	if ToSet[string](nil) != nil {
		t.Error("ToSet(nil) should be nil")
	}
}
