package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func readDisk(t *testing.T, s *Store) Preferences {
	t.Helper()
	p, err := readFile(s.Path())
	if err != nil {
		t.Fatalf("readFile: %v", err)
	}
	return p
}

func TestNewWritesDefaultsWhenMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("preferences file not created: %v", err)
	}
	got := readDisk(t, s)
	if !reflect.DeepEqual(got, DefaultPreferences()) {
		t.Fatalf("disk = %+v, want defaults", got)
	}
}

func TestNewHealsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, err := s.Preferences()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, DefaultPreferences()) {
		t.Fatalf("in-memory = %+v, want defaults", p)
	}
	if got := readDisk(t, s); !reflect.DeepEqual(got, DefaultPreferences()) {
		t.Fatalf("corrupt file was not rewritten, got %+v", got)
	}
}

func TestNewFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(`{"copy_to_clipboard": false}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := s.Preferences()
	if p.CopyToClipboard {
		t.Error("CopyToClipboard = true, want false from file")
	}
	if !reflect.DeepEqual(p.Shortcuts, DefaultShortcuts()) {
		t.Errorf("Shortcuts = %+v, want defaults", p.Shortcuts)
	}
	if !reflect.DeepEqual(p.APIURLs, DefaultEndpoints()) {
		t.Errorf("APIURLs = %+v, want defaults", p.APIURLs)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Preferences{
		DefaultPreferences(),
		{
			CopyToClipboard: false,
			Shortcuts: Shortcuts{ToggleApp: Binding{
				Modifiers: []string{"shift", "meta"},
				Key:       "f5",
				Action:    "toggle",
			}},
			APIURLs: EndpointList{
				URLs: []Endpoint{
					{Name: "primary", URL: "https://a.example"},
					{Name: "mirror", URL: "https://b.example"},
				},
				ActiveIndex: 1,
			},
		},
		{
			CopyToClipboard: true,
			Shortcuts:       Shortcuts{ToggleApp: Binding{Modifiers: []string{}, Key: "1"}},
			APIURLs:         EndpointList{URLs: []Endpoint{}},
		},
	}

	for i, want := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s := newTestStore(t)
			if err := s.UpdatePreferences(want); err != nil {
				t.Fatalf("UpdatePreferences: %v", err)
			}
			if got := readDisk(t, s); !reflect.DeepEqual(got, want) {
				t.Fatalf("disk = %+v, want %+v", got, want)
			}

			reopened, err := New(filepath.Dir(s.Path()))
			if err != nil {
				t.Fatal(err)
			}
			got, _ := reopened.Preferences()
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("reopened = %+v, want %+v", got, want)
			}
		})
	}
}

func TestReadsReturnClones(t *testing.T) {
	s := newTestStore(t)

	p, _ := s.Preferences()
	p.APIURLs.URLs[0].URL = "https://mutated.example"
	p.Shortcuts.ToggleApp.Modifiers[0] = "shift"

	again, _ := s.Preferences()
	if again.APIURLs.URLs[0].URL != FallbackEndpointURL {
		t.Errorf("endpoint mutated through clone: %q", again.APIURLs.URLs[0].URL)
	}
	if again.Shortcuts.ToggleApp.Modifiers[0] != "ctrl" {
		t.Errorf("modifier mutated through clone: %q", again.Shortcuts.ToggleApp.Modifiers[0])
	}
}

func seedEndpoints(t *testing.T, s *Store, n, active int) {
	t.Helper()
	list := EndpointList{ActiveIndex: active}
	for i := 0; i < n; i++ {
		list.URLs = append(list.URLs, Endpoint{
			Name: fmt.Sprintf("ep%d", i),
			URL:  fmt.Sprintf("https://ep%d.example", i),
		})
	}
	if err := s.SetEndpoints(list); err != nil {
		t.Fatalf("SetEndpoints: %v", err)
	}
}

func TestRemoveActiveEndpointResetsIndex(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for active := 0; active < n; active++ {
			t.Run(fmt.Sprintf("n%d_active%d", n, active), func(t *testing.T) {
				s := newTestStore(t)
				seedEndpoints(t, s, n, active)

				if err := s.RemoveEndpoint(active); err != nil {
					t.Fatalf("RemoveEndpoint: %v", err)
				}
				list, _ := s.Endpoints()
				if list.ActiveIndex != 0 {
					t.Fatalf("ActiveIndex = %d, want 0", list.ActiveIndex)
				}
				if len(list.URLs) != n-1 {
					t.Fatalf("len = %d, want %d", len(list.URLs), n-1)
				}
				if got := readDisk(t, s).APIURLs.ActiveIndex; got != 0 {
					t.Fatalf("disk ActiveIndex = %d, want 0", got)
				}
			})
		}
	}
}

func TestRemoveEndpointBeforeActiveKeepsSelection(t *testing.T) {
	s := newTestStore(t)
	seedEndpoints(t, s, 3, 2)

	if err := s.RemoveEndpoint(0); err != nil {
		t.Fatal(err)
	}
	url, _ := s.ActiveEndpointURL()
	if url != "https://ep2.example" {
		t.Fatalf("active = %q, want ep2", url)
	}
}

func TestRemoveEndpointOutOfRange(t *testing.T) {
	s := newTestStore(t)
	seedEndpoints(t, s, 2, 1)
	before := readDisk(t, s)

	for _, idx := range []int{2, 5, -1} {
		err := s.RemoveEndpoint(idx)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("RemoveEndpoint(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
	list, _ := s.Endpoints()
	if !reflect.DeepEqual(list, before.APIURLs) {
		t.Fatalf("state changed: %+v", list)
	}
}

func TestSetActiveEndpoint(t *testing.T) {
	s := newTestStore(t)
	seedEndpoints(t, s, 3, 0)

	for _, idx := range []int{3, 10} {
		if err := s.SetActiveEndpoint(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("SetActiveEndpoint(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
		list, _ := s.Endpoints()
		if list.ActiveIndex != 0 {
			t.Fatalf("ActiveIndex mutated to %d", list.ActiveIndex)
		}
	}

	if err := s.SetActiveEndpoint(2); err != nil {
		t.Fatalf("SetActiveEndpoint(2): %v", err)
	}
	list, _ := s.Endpoints()
	if list.ActiveIndex != 2 {
		t.Fatalf("ActiveIndex = %d, want 2", list.ActiveIndex)
	}
	if got := readDisk(t, s).APIURLs.ActiveIndex; got != 2 {
		t.Fatalf("disk ActiveIndex = %d, want 2", got)
	}
}

func TestActiveEndpointURLFallbacks(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetEndpoints(EndpointList{}); err != nil {
		t.Fatal(err)
	}
	url, err := s.ActiveEndpointURL()
	if err != nil {
		t.Fatalf("ActiveEndpointURL: %v", err)
	}
	if url != FallbackEndpointURL {
		t.Fatalf("url = %q, want fallback", url)
	}

	// 直接写入越界下标，读取时退回第0项且不修改存储
	s.prefs.APIURLs = EndpointList{
		URLs:        []Endpoint{{Name: "a", URL: "https://a.example"}},
		ActiveIndex: 7,
	}
	url, _ = s.ActiveEndpointURL()
	if url != "https://a.example" {
		t.Fatalf("url = %q, want index 0", url)
	}
	if s.prefs.APIURLs.ActiveIndex != 7 {
		t.Fatal("read repaired stored state")
	}
}

func TestSetEndpointsRejectsBadIndex(t *testing.T) {
	s := newTestStore(t)
	err := s.SetEndpoints(EndpointList{
		URLs:        []Endpoint{{Name: "a", URL: "https://a.example"}},
		ActiveIndex: 1,
	})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestAddEndpoint(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddEndpoint("mirror", " https://mirror.example "); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEndpoint("", ""); !errors.Is(err, ErrInvalidEndpoint) {
		t.Fatalf("err = %v, want ErrInvalidEndpoint", err)
	}
	list := readDisk(t, s).APIURLs
	if len(list.URLs) != 2 || list.URLs[1].URL != "https://mirror.example" {
		t.Fatalf("urls = %+v", list.URLs)
	}
}

func TestSetCopyToClipboardAndShortcuts(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCopyToClipboard(false); err != nil {
		t.Fatal(err)
	}
	sc := Shortcuts{ToggleApp: Binding{Modifiers: []string{"Super", "shift"}, Key: "F12", Action: "x"}}
	if err := s.SetShortcuts(sc); err != nil {
		t.Fatal(err)
	}

	disk := readDisk(t, s)
	if disk.CopyToClipboard {
		t.Error("disk CopyToClipboard = true")
	}
	if !reflect.DeepEqual(disk.Shortcuts, sc) {
		t.Errorf("disk shortcuts = %+v", disk.Shortcuts)
	}
	hk, _ := s.ToggleAppHotkey()
	if hk != (Hotkey{Mods: ModMeta | ModShift, Code: F12}) {
		t.Errorf("hotkey = %v", hk)
	}
}

func TestBusyWithoutWait(t *testing.T) {
	s := newTestStore(t, WithLockWait(0))
	if !s.sem.TryAcquire(1) {
		t.Fatal("semaphore already held")
	}

	if _, err := s.Preferences(); !errors.Is(err, ErrBusy) {
		t.Fatalf("read err = %v, want ErrBusy", err)
	}
	if err := s.SetCopyToClipboard(false); !errors.Is(err, ErrBusy) {
		t.Fatalf("write err = %v, want ErrBusy", err)
	}

	s.release()
	p, err := s.Preferences()
	if err != nil {
		t.Fatal(err)
	}
	if !p.CopyToClipboard {
		t.Fatal("busy write was applied")
	}
}

func TestBoundedWaitAcquiresAfterRelease(t *testing.T) {
	s := newTestStore(t, WithLockWait(time.Second))
	if !s.sem.TryAcquire(1) {
		t.Fatal("semaphore already held")
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.release()
	}()
	if err := s.SetCopyToClipboard(false); err != nil {
		t.Fatalf("SetCopyToClipboard: %v", err)
	}
}

func TestBoundedWaitTimesOut(t *testing.T) {
	s := newTestStore(t, WithLockWait(20*time.Millisecond))
	if !s.sem.TryAcquire(1) {
		t.Fatal("semaphore already held")
	}
	defer s.release()

	start := time.Now()
	if err := s.AddEndpoint("a", "https://a.example"); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("returned before the wait elapsed")
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	s := newTestStore(t)
	// 锁文件位置被目录占用，加锁必然失败
	lockPath := s.Path() + ".lock"
	if err := os.RemoveAll(lockPath); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(lockPath, 0o755); err != nil {
		t.Fatal(err)
	}

	err := s.SetCopyToClipboard(false)
	var perr *PersistError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *PersistError", err)
	}
	p, _ := s.Preferences()
	if p.CopyToClipboard {
		t.Fatal("in-memory mutation was rolled back")
	}
	if disk := readDisk(t, s); !disk.CopyToClipboard {
		t.Fatal("failed write reached the file")
	}

	// 故障排除后重复同一次更新即可落盘
	if err := os.Remove(lockPath); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCopyToClipboard(false); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if disk := readDisk(t, s); disk.CopyToClipboard {
		t.Fatal("retry not persisted")
	}
}

func TestConcurrentWritesNeverInterleave(t *testing.T) {
	s := newTestStore(t, WithLockWait(10*time.Second))

	a := DefaultPreferences()
	a.CopyToClipboard = false
	a.APIURLs.URLs = append(a.APIURLs.URLs, Endpoint{Name: "a", URL: "https://a.example"})
	b := DefaultPreferences()
	b.Shortcuts.ToggleApp = Binding{Modifiers: []string{"shift"}, Key: "q", Action: "b"}

	wantA, _ := json.MarshalIndent(a, "", "  ")
	wantB, _ := json.MarshalIndent(b, "", "  ")

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := s.UpdatePreferences(a); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := s.UpdatePreferences(b); err != nil {
				t.Error(err)
			}
		}()
		wg.Wait()

		got, err := os.ReadFile(s.Path())
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(wantA) && string(got) != string(wantB) {
			t.Fatalf("round %d: file is neither state:\n%s", round, got)
		}
	}
}

func TestDefaultDir(t *testing.T) {
	dir := DefaultDir("MemeMeow")
	if filepath.Base(dir) != "MemeMeow" {
		t.Fatalf("DefaultDir = %s", dir)
	}
}
