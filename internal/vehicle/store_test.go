package vehicle

import (
	"errors"
	"sync"
	"testing"

	"github.com/jkaberg/ebike-sim/internal/protocol"
)

func TestDefaultStatus(t *testing.T) {
	s := DefaultStatus()
	if len(s) != 14 {
		t.Errorf("len = %d, want 14", len(s))
	}
	for k, v := range s {
		if v != 0 {
			t.Errorf("%s = %d, want 0", k, v)
		}
	}
}

func TestInitMergesKnownFlags(t *testing.T) {
	st := NewStore()
	st.Init("1", map[string]int{"locked": 1, "mode": 2, "bogus": 9})

	s, ok := st.Get("1")
	if !ok {
		t.Fatal("expected record")
	}
	if s[protocol.FlagLocked] != 1 || s[protocol.FlagMode] != 2 {
		t.Errorf("status = %v", s)
	}
	if _, ok := s["bogus"]; ok {
		t.Error("unknown key should be ignored")
	}
}

func TestUpdateCreatesMissingRecord(t *testing.T) {
	st := NewStore()
	err := st.Update("9", func(s Status) error {
		if s[protocol.FlagHorn] != 0 {
			t.Errorf("horn = %d", s[protocol.FlagHorn])
		}
		s[protocol.FlagHorn] = 1
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := st.Get("9")
	if s[protocol.FlagHorn] != 1 {
		t.Errorf("horn = %d, want 1", s[protocol.FlagHorn])
	}
}

func TestUpdateKeepsChangesOnError(t *testing.T) {
	st := NewStore()
	boom := errors.New("boom")
	err := st.Update("1", func(s Status) error {
		s[protocol.FlagLocked] = 1
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	s, _ := st.Get("1")
	if s[protocol.FlagLocked] != 1 {
		t.Error("change should be kept")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	st := NewStore()
	st.Init("1", nil)
	s, _ := st.Get("1")
	s[protocol.FlagLocked] = 1

	again, _ := st.Get("1")
	if again[protocol.FlagLocked] != 0 {
		t.Error("Get should return a copy")
	}
	if _, ok := st.Get("2"); ok {
		t.Error("unknown vehicle should not exist")
	}
}

func TestIDsSorted(t *testing.T) {
	st := NewStore()
	for _, id := range []string{"3", "1", "2"} {
		st.Init(id, nil)
	}
	ids := st.IDs()
	if len(ids) != 3 || ids[0] != "1" || ids[2] != "3" {
		t.Errorf("IDs = %v", ids)
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Update("1", func(s Status) error {
				s[protocol.FlagMode]++
				return nil
			})
		}()
	}
	wg.Wait()
	s, _ := st.Get("1")
	if s[protocol.FlagMode] != 100 {
		t.Errorf("mode = %d, want 100", s[protocol.FlagMode])
	}
}
