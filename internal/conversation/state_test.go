package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTryBeginTurn(t *testing.T) {
	st := NewState("conv-1")

	require.True(t, st.TryBeginTurn(func() {}))
	assert.True(t, st.IsProcessing())

	// Second begin while processing must fail
	require.False(t, st.TryBeginTurn(func() {}))
}

func TestTryBeginTurn_ResetsPerTurnState(t *testing.T) {
	st := NewState("conv-1")

	require.True(t, st.TryBeginTurn(func() {}))
	st.BeginBlock("text")
	st.AppendDelta("text", "hello")
	st.IncrementToolCount()
	_, _ = st.FinishTurn()

	require.True(t, st.TryBeginTurn(func() {}))
	assert.False(t, st.GotStreamContent())
	assert.Zero(t, st.ToolCount())
}

func TestFinishTurn_ConsumesQueuedMessage(t *testing.T) {
	st := NewState("conv-1")
	require.True(t, st.TryBeginTurn(func() {}))

	st.QueueMessage("follow-up")

	queued, ok := st.FinishTurn()
	require.True(t, ok)
	assert.Equal(t, "follow-up", queued)
	assert.False(t, st.IsProcessing())

	// Queue slot is consumed
	_, ok = st.QueuedMessage()
	assert.False(t, ok)
}

func TestFinishTurn_NotProcessing(t *testing.T) {
	st := NewState("conv-1")

	queued, ok := st.FinishTurn()
	assert.Empty(t, queued)
	assert.False(t, ok)
}

func TestQueueMessage_LastWriteWins(t *testing.T) {
	st := NewState("conv-1")
	require.True(t, st.TryBeginTurn(func() {}))

	st.QueueMessage("first")
	st.QueueMessage("second")
	st.QueueMessage("third")

	queued, ok := st.QueuedMessage()
	require.True(t, ok)
	assert.Equal(t, "third", queued)

	queued, ok = st.FinishTurn()
	require.True(t, ok)
	assert.Equal(t, "third", queued)
}

func TestCancel_ReturnsPartialContent(t *testing.T) {
	st := NewState("conv-1")
	cancelFired := false
	require.True(t, st.TryBeginTurn(func() { cancelFired = true }))

	st.BeginBlock("text")
	st.AppendDelta("text", "partial ")
	st.AppendDelta("text", "output")

	partial, blockType, hadStart, ok := st.Cancel()
	require.True(t, ok)
	assert.Equal(t, "partial output", partial)
	assert.Equal(t, "text", blockType)
	assert.True(t, hadStart)
	assert.True(t, cancelFired)
	assert.True(t, st.IsCancelled())
}

func TestCancel_Idle(t *testing.T) {
	st := NewState("conv-1")

	_, _, _, ok := st.Cancel()
	assert.False(t, ok)
}

func TestCancel_Redundant(t *testing.T) {
	st := NewState("conv-1")
	fires := 0
	require.True(t, st.TryBeginTurn(func() { fires++ }))

	_, _, _, ok := st.Cancel()
	require.True(t, ok)

	_, _, _, ok = st.Cancel()
	assert.False(t, ok)
	assert.Equal(t, 1, fires)
}

func TestCancel_QueuedMessageSurvives(t *testing.T) {
	st := NewState("conv-1")
	require.True(t, st.TryBeginTurn(func() {}))
	st.QueueMessage("queued during turn")

	_, _, _, ok := st.Cancel()
	require.True(t, ok)

	queued, hasQueued := st.FinishTurn()
	require.True(t, hasQueued)
	assert.Equal(t, "queued during turn", queued)
}

func TestEndBlock_WithoutStart(t *testing.T) {
	st := NewState("conv-1")
	require.True(t, st.TryBeginTurn(func() {}))

	// Delta arrives with no announced block
	st.AppendDelta("text", "bare delta")
	hadStart := st.EndBlock()
	assert.False(t, hadStart)
	assert.True(t, st.GotStreamContent())
}

func TestAppendDelta_Accumulates(t *testing.T) {
	st := NewState("conv-1")
	require.True(t, st.TryBeginTurn(func() {}))

	st.BeginBlock("thinking")
	assert.Equal(t, "a", st.AppendDelta("thinking", "a"))
	assert.Equal(t, "ab", st.AppendDelta("thinking", "b"))
	assert.Equal(t, "abc", st.AppendDelta("thinking", "c"))

	hadStart := st.EndBlock()
	assert.True(t, hadStart)

	// Accumulation resets across blocks
	st.BeginBlock("text")
	assert.Equal(t, "x", st.AppendDelta("text", "x"))
}

func TestProcessingStart(t *testing.T) {
	st := NewState("conv-1")

	_, ok := st.ProcessingStart()
	assert.False(t, ok)

	require.True(t, st.TryBeginTurn(func() {}))
	start, ok := st.ProcessingStart()
	require.True(t, ok)
	assert.False(t, start.IsZero())
}

// TestStateMachine_Rapid drives the turn state machine through random
// operation sequences and checks its invariants after each step.
func TestStateMachine_Rapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st := NewState("conv-rapid")
		processing := false
		cancelled := false
		var queued []string

		ops := rapid.SliceOf(rapid.SampledFrom([]string{
			"begin", "finish", "queue", "cancel", "delta",
		})).Draw(t, "ops")

		for _, op := range ops {
			switch op {
			case "begin":
				ok := st.TryBeginTurn(func() {})
				if processing {
					if ok {
						t.Fatalf("begin succeeded while processing")
					}
				} else {
					if !ok {
						t.Fatalf("begin failed while idle")
					}
					processing = true
					cancelled = false
				}
			case "finish":
				msg, ok := st.FinishTurn()
				if !processing {
					if ok {
						t.Fatalf("finish returned a message while idle")
					}
				} else {
					processing = false
					cancelled = false
					if len(queued) > 0 {
						if !ok || msg != queued[len(queued)-1] {
							t.Fatalf("finish returned %q, want last queued %q", msg, queued[len(queued)-1])
						}
						queued = nil
					} else if ok {
						t.Fatalf("finish returned a message with empty queue")
					}
				}
			case "queue":
				msg := rapid.StringMatching(`m[0-9]{1,3}`).Draw(t, "msg")
				st.QueueMessage(msg)
				queued = append(queued, msg)
			case "cancel":
				_, _, _, ok := st.Cancel()
				if ok != (processing && !cancelled) {
					t.Fatalf("cancel ok=%v, processing=%v cancelled=%v", ok, processing, cancelled)
				}
				if ok {
					cancelled = true
				}
			case "delta":
				st.AppendDelta("text", "d")
			}

			if st.IsProcessing() != processing {
				t.Fatalf("IsProcessing=%v, model says %v", st.IsProcessing(), processing)
			}
		}
	})
}
