package refcount

import (
	"sync"
	"testing"
)

func expectPanic(t *testing.T, name string, f func()) {
	defer func() {
		if recover() == nil {
			t.Error(name, "did not panic")
		}
	}()
	f()
}

func TestRelease(t *testing.T) {
	r := Ref{}

	called := 0
	r.Init(func() {
		called++
	})

	if r.Count() != 1 {
		t.Error("Initial count is not one")
	}

	for i := 0; i < 5; i++ {
		r.Acquire()
	}
	for i := 0; i < 5; i++ {
		r.Release()
		if called != 0 {
			t.Error("Release func called while references remain")
		}
	}

	r.Release()
	if called != 1 {
		t.Error("Release func not called exactly once:", called)
	}
	if !r.IsReleased() {
		t.Error("Ref not marked released")
	}

	expectPanic(t, "Release", r.Release)
	expectPanic(t, "Acquire", r.Acquire)

	if called != 1 {
		t.Error("Release func called again after misuse")
	}
}

func TestReleaseFuncSeesState(t *testing.T) {
	r := Ref{}

	r.Init(func() {
		/* Check for deadlock issues */
		if r.Count() != 0 || !r.IsReleased() {
			t.Error("Release func observed a live count")
		}
	})
	r.Release()
}

func TestNilReleaseFunc(t *testing.T) {
	r := Ref{}
	r.Init(nil)
	r.Release()

	if !r.IsReleased() {
		t.Error("Ref not released")
	}
}

func TestConcurrent(t *testing.T) {
	r := Ref{}

	var mutex sync.Mutex
	called := 0
	r.Init(func() {
		mutex.Lock()
		called++
		mutex.Unlock()
	})

	var wg sync.WaitGroup

	/* Start 16 goroutines that each hold a reference for a while */
	wg.Add(16)
	for i := 0; i < 16; i++ {
		r.Acquire()
		go func() {
			defer wg.Done()
			defer r.Release()

			for j := 0; j < 100; j++ {
				r.Acquire()
				r.Release()
			}
		}()
	}

	r.Release()
	wg.Wait()

	if called != 1 {
		t.Error("Release func not called exactly once:", called)
	}
}
