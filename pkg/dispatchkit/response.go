package dispatchkit

// Result summarizes one completed dispatch.
type Result struct {
	// Delivered counts subscribers that ran to completion.
	Delivered int
	// Failed counts subscribers that panicked.
	Failed int
	// Unfulfilled is set when no subscriber matched the message at
	// dispatch time.
	Unfulfilled bool
}

// Response is the completion future returned by PublishAwait. It resolves
// exactly once, on the same goroutine that drives the runtime. Poll it
// between external events, or install a waker to be called at resolution.
//
// NOT thread-safe; confine to the runtime's goroutine.
type Response struct {
	done   bool
	result Result
	waker  func()
}

// Ready reports whether the dispatch has completed.
func (r *Response) Ready() bool {
	return r.done
}

// Poll returns the dispatch result, if available.
func (r *Response) Poll() (Result, bool) {
	return r.result, r.done
}

// SetWaker installs fn to be invoked when the response resolves. If it has
// already resolved, fn is invoked immediately. A later call replaces the
// previous waker.
func (r *Response) SetWaker(fn func()) {
	if r.done {
		if fn != nil {
			fn()
		}
		return
	}
	r.waker = fn
}

// resolve completes the response. Extra calls are ignored.
func (r *Response) resolve(res Result) {
	if r.done {
		return
	}
	r.done = true
	r.result = res
	if r.waker != nil {
		fn := r.waker
		r.waker = nil
		fn()
	}
}
