package state

import "testing"

func TestAttach_SetupRunsImmediately(t *testing.T) {
	s := Of("v1")
	setups := 0
	s.Attach(Lifecycle[string]{
		Setup: func() { setups++ },
	})
	if setups != 1 {
		t.Fatalf("expected 1 setup call, got %d", setups)
	}

	s.Update("v2")
	s.Teardown()
	if setups != 1 {
		t.Fatalf("expected setup to stay at 1, got %d", setups)
	}
}

func TestAttach_TeardownRunsOnce(t *testing.T) {
	s := Of("v1")
	teardowns := 0
	s.Attach(Lifecycle[string]{
		Teardown: func() { teardowns++ },
	})
	if teardowns != 0 {
		t.Fatalf("expected no teardown before state teardown, got %d", teardowns)
	}

	s.Teardown()
	if teardowns != 1 {
		t.Fatalf("expected 1 teardown call, got %d", teardowns)
	}

	s.Teardown()
	if teardowns != 1 {
		t.Fatalf("expected no extra teardown on second call, got %d", teardowns)
	}
}

func TestAttach_EmptyLifecycle(t *testing.T) {
	s := Of(1)
	remove := s.Attach(Lifecycle[int]{})
	s.Update(2)
	remove()
	s.Attach(Lifecycle[int]{})
	s.Teardown()
}

func TestAttach_RemoveDoesNotTeardown(t *testing.T) {
	s := Of(1)
	teardowns := 0
	remove := s.Attach(Lifecycle[int]{
		Teardown: func() { teardowns++ },
	})

	remove()
	remove()
	s.Teardown()
	if teardowns != 0 {
		t.Fatalf("expected removed lifecycle to skip teardown, got %d", teardowns)
	}
}

func TestAttach_RemoverIsolates(t *testing.T) {
	s := Of(0)
	first, second := 0, 0
	remove := s.Attach(Lifecycle[int]{Update: func(int, int) { first++ }})
	s.Attach(Lifecycle[int]{Update: func(int, int) { second++ }})

	s.Update(1)
	remove()
	s.Update(2)
	s.Update(3)

	if first != 1 {
		t.Fatalf("expected removed lifecycle to see 1 update, got %d", first)
	}
	if second != 3 {
		t.Fatalf("expected remaining lifecycle to see 3 updates, got %d", second)
	}
}

func TestAttach_RemovedDuringNotificationIsSkipped(t *testing.T) {
	s := Of(0)
	calls := 0
	var removeSecond func()
	s.Attach(Lifecycle[int]{
		Update: func(int, int) { removeSecond() },
	})
	removeSecond = s.Attach(Lifecycle[int]{
		Update: func(int, int) { calls++ },
	})

	s.Update(1)
	if calls != 0 {
		t.Fatalf("expected lifecycle removed mid-pass to be skipped, got %d", calls)
	}
}

func TestAttach_AfterTeardownIsNoOp(t *testing.T) {
	s := Of(1)
	s.Teardown()

	setups, teardowns := 0, 0
	remove := s.Attach(Lifecycle[int]{
		Setup:    func() { setups++ },
		Teardown: func() { teardowns++ },
	})
	remove()
	s.Teardown()

	if setups != 0 || teardowns != 0 {
		t.Fatalf("expected no callbacks after teardown, got setup=%d teardown=%d", setups, teardowns)
	}
	if info := s.Describe(); info.Lifecycles != 0 {
		t.Fatalf("expected empty registry after teardown, got %d", info.Lifecycles)
	}
}

func TestTeardown_RunsInAttachOrder(t *testing.T) {
	s := Of(1)
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		s.Attach(Lifecycle[int]{Teardown: func() { order = append(order, i) }})
	}

	s.Teardown()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected teardown order: %v", order)
	}
}
