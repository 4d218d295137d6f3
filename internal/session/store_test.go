package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	s := New()
	require.False(t, s.IsAuthenticated())

	exp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.SetSession("tok", "uid-1", "a@example.com", exp)
	require.True(t, s.IsAuthenticated())
	require.Equal(t, "tok", s.Token())
	require.Equal(t, "uid-1", s.UserID())
	require.Equal(t, "a@example.com", s.Email())
	require.Equal(t, exp, s.ExpiresAt())
	require.False(t, s.Expired(exp.Add(-time.Second)))
	require.True(t, s.Expired(exp))

	s.SetDisplayName("Ana")
	require.Equal(t, "Ana", s.DisplayName())

	s.Clear()
	require.False(t, s.IsAuthenticated())
	require.Equal(t, Snapshot{}, s.Snapshot())
	require.False(t, s.Expired(time.Now()))
}

func TestIsAuthenticatedNeedsBothTokenAndUser(t *testing.T) {
	s := New()
	s.SetSession("tok", "", "a@example.com", time.Time{})
	require.False(t, s.IsAuthenticated())
	s.SetSession("", "uid", "a@example.com", time.Time{})
	require.False(t, s.IsAuthenticated())
}

func TestSetSessionKeepsDisplayNameForSameUser(t *testing.T) {
	s := New()
	s.SetSession("t1", "uid-1", "a@example.com", time.Time{})
	s.SetDisplayName("Ana")

	s.SetSession("t2", "uid-1", "a@example.com", time.Time{})
	require.Equal(t, "Ana", s.DisplayName())

	s.SetSession("t3", "uid-2", "b@example.com", time.Time{})
	require.Empty(t, s.DisplayName())
}

func TestObserverReplacedAndCleared(t *testing.T) {
	s := New()
	var first, second []string
	s.OnDisplayNameChange(func(n string) { first = append(first, n) })
	s.SetDisplayName("one")
	s.OnDisplayNameChange(func(n string) { second = append(second, n) })
	s.SetDisplayName("two")

	require.Equal(t, []string{"one"}, first)
	require.Equal(t, []string{"two"}, second)

	s.Clear()
	s.SetDisplayName("three")
	require.Equal(t, []string{"two"}, second)
}

func TestObserverMayReadStore(t *testing.T) {
	s := New()
	var seen string
	s.OnDisplayNameChange(func(string) { seen = s.DisplayName() })
	s.SetDisplayName("Ana")
	require.Equal(t, "Ana", seen)
}

func TestConcurrentSetSessionIsAtomic(t *testing.T) {
	s := New()
	const writers = 8
	const rounds = 500

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := make(chan string, 1)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				if (snap.Token == "") != (snap.UserID == "") {
					select {
					case violations <- fmt.Sprintf("torn read: %+v", snap):
					default:
					}
				}
				if snap.Token != "" && snap.Token != "tok-"+snap.UserID {
					select {
					case violations <- fmt.Sprintf("mismatched pair: %+v", snap):
					default:
					}
				}
			}
		}()
	}

	var writersWG sync.WaitGroup
	for w := 0; w < writers; w++ {
		writersWG.Add(1)
		go func() {
			defer writersWG.Done()
			for i := 0; i < rounds; i++ {
				uid := fmt.Sprintf("u%d-%d", w, i)
				s.SetSession("tok-"+uid, uid, uid+"@example.com", time.Time{})
				if i%50 == 0 {
					s.Clear()
				}
			}
		}()
	}
	writersWG.Wait()
	close(stop)
	wg.Wait()

	select {
	case v := <-violations:
		t.Fatal(v)
	default:
	}
}
