package frame

// Invoke calls body as a poppable method on t. Each entry receives its own
// copy of args, so a re-entry after a pop sees the values of the original
// call even if an earlier entry modified them. Only the top-level value is
// copied: memory reachable through pointers, slices or maps is shared.
//
// Invoke must be called from t's own goroutine.
func Invoke[A any](t *Thread, method string, args A, body func(args *A)) {
	for reentry := false; ; reentry = true {
		popped := t.call(method, reentry, func() {
			a := args
			body(&a)
		})
		if !popped {
			return
		}
	}
}

// call runs fn in a new activation and reports whether that activation was
// popped. Pops aimed at a deeper caller continue unwinding.
func (t *Thread) call(method string, reentry bool, fn func()) (popped bool) {
	a := t.push(method)
	t.post(Event{Kind: MethodEntry, Method: method, Depth: a.depth, Reentry: reentry})

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		t.truncate(a.depth)
		sig, ok := r.(*popSignal)
		if !ok || sig.depth < a.depth {
			panic(r)
		}
		popped = true
	}()

	fn()

	t.truncate(a.depth)
	t.post(Event{Kind: MethodExit, Method: method, Depth: a.depth})
	return false
}
