// Copyright © 2025 The cinder authors

package lisp

import "sync"

// Channel is a multi-producer/multi-consumer queue shared by reference
// across threads.  Bounded channels (capacity >= 0, where 0 means a fully
// synchronous handoff) ride on a native Go channel.  Unbounded channels
// use a condition-variable queue so senders never block.
type Channel struct {
	ch    chan *Value
	mu    sync.Mutex
	cond  *sync.Cond
	queue []*Value
}

// NewChannel returns a channel with the given capacity.  A negative
// capacity means unbounded.
func NewChannel(capacity int) *Channel {
	if capacity >= 0 {
		return &Channel{ch: make(chan *Value, capacity)}
	}
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// NewUnboundedChannel returns a channel whose sends never block.
func NewUnboundedChannel() *Channel { return NewChannel(-1) }

// Send enqueues v, blocking while a bounded buffer is full or, at
// capacity 0, until a receiver is ready.
func (c *Channel) Send(v *Value) {
	if c.ch != nil {
		c.ch <- v
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, v)
	c.cond.Signal()
	c.mu.Unlock()
}

// Recv dequeues the next value, blocking while the channel is empty.
// Values from a single sender arrive in send order.
func (c *Channel) Recv() *Value {
	if c.ch != nil {
		return <-c.ch
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 {
		c.cond.Wait()
	}
	v := c.queue[0]
	c.queue = c.queue[1:]
	return v
}

// Close is intentionally inert.  Closing is structural in this language:
// a channel is gone when every holder has dropped it, and the operation
// exists only so channel-close remains a valid call.
func (c *Channel) Close() {}

var concurrencyBuiltins = []*langBuiltin{
	{"make-channel", "(make-channel [capacity])",
		"Create a new channel. With no argument the channel is unbounded; a capacity of 0 gives a fully synchronous handoff.",
		builtinMakeChannel},
	{"channel-send", "(channel-send channel value)",
		"Send a value to a channel, blocking while the buffer is full. Returns the sent value.",
		builtinChannelSend},
	{"channel-recv", "(channel-recv channel)",
		"Receive a value from a channel, blocking until one is available.",
		builtinChannelRecv},
	{"channel-close", "(channel-close channel)",
		"Close a channel. Closing is structural (a channel closes when all holders drop it) so this call is a deliberate no-op returning nil.",
		builtinChannelClose},
	{"channel?", "(channel? value)",
		"Return #t if value is a channel.",
		builtinIsChannel},
	{"spawn", "(spawn function)",
		"Run a zero-parameter lambda on a new thread. Returns a channel that receives the result value, or an error value if the body fails.",
		builtinSpawn},
	{"spawn-link", "(spawn-link function)",
		"Run a zero-parameter lambda on a new thread. Returns a channel that receives {:ok value} on success or {:error \"message\"} on failure.",
		builtinSpawnLink},
}

func builtinMakeChannel(rt *Runtime, args []*Value) (*Value, error) {
	switch len(args) {
	case 0:
		return ChannelValue(NewUnboundedChannel()), nil
	case 1:
		if args[0].Type != VNumber {
			return nil, RuntimeErrorf("make-channel", "capacity must be a number")
		}
		n := args[0].Num
		if n < 0 || n != float64(int(n)) {
			return nil, RuntimeErrorf("make-channel", "capacity must be a non-negative integer")
		}
		return ChannelValue(NewChannel(int(n))), nil
	}
	return nil, ArityErrorf("make-channel", ArityZeroOrOne, len(args))
}

func builtinChannelSend(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("channel-send", ArityTwo, len(args))
	}
	if args[0].Type != VChannel {
		return nil, TypeError("channel-send", "channel", args[0], 1)
	}
	args[0].Ch.Send(args[1])
	return args[1], nil
}

func builtinChannelRecv(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("channel-recv", ArityOne, len(args))
	}
	if args[0].Type != VChannel {
		return nil, TypeError("channel-recv", "channel", args[0], 1)
	}
	return args[0].Ch.Recv(), nil
}

func builtinChannelClose(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("channel-close", ArityOne, len(args))
	}
	if args[0].Type != VChannel {
		return nil, TypeError("channel-close", "channel", args[0], 1)
	}
	args[0].Ch.Close()
	return Nil(), nil
}

func builtinIsChannel(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("channel?", ArityOne, len(args))
	}
	return Bool(args[0].Type == VChannel), nil
}

// spawnThread checks the spawn-family argument and runs its body on a new
// thread against a snapshot runtime.  deliver maps the outcome onto the
// value sent to the result channel.
func spawnThread(rt *Runtime, name string, args []*Value, deliver func(*Value, error) *Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf(name, ArityOne, len(args))
	}
	if args[0].Type != VLambda {
		return nil, TypeError(name, "lambda", args[0], 1)
	}
	fn := args[0].Fun
	if len(fn.Params) != 0 {
		return nil, RuntimeErrorf(name, "function must take zero parameters")
	}
	results := NewUnboundedChannel()
	child := rt.Snapshot()
	go func() {
		v, err := child.Eval(fn.Body, fn.Env)
		results.Send(deliver(v, err))
	}()
	return ChannelValue(results), nil
}

func builtinSpawn(rt *Runtime, args []*Value) (*Value, error) {
	return spawnThread(rt, "spawn", args, func(v *Value, err error) *Value {
		if err != nil {
			return ErrValue(err.Error())
		}
		return v
	})
}

func builtinSpawnLink(rt *Runtime, args []*Value) (*Value, error) {
	return spawnThread(rt, "spawn-link", args, func(v *Value, err error) *Value {
		if err != nil {
			return MapValue(map[string]*Value{"error": String(err.Error())})
		}
		return MapValue(map[string]*Value{"ok": v})
	})
}
