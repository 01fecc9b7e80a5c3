package chat

import (
	"fmt"

	"github.com/zjrosen/parley/internal/conversation"
	"github.com/zjrosen/parley/internal/session"
)

// wireStreamingCallbacks installs a fresh set of callback closures on the
// handle for the turn about to run. Each closure captures this
// conversation's id and state, so output can only ever land in this
// conversation's pane no matter how many turns run in parallel.
//
// Every closure checks the cancellation flag first: after a cancel, the
// engine may keep emitting events until it notices the dead context, and
// none of those should reach the display.
func (s *Service) wireStreamingCallbacks(conversationID string, st *conversation.State, h *session.Handle) {
	h.SetCallbacks(session.Callbacks{
		OnContentBlockStart: func(blockType string, index int) {
			if st.IsCancelled() {
				return
			}
			st.BeginBlock(blockType)
			s.disp.StreamBlockStart(conversationID, blockType)
		},
		OnContentBlockDelta: func(blockType, delta string) {
			if st.IsCancelled() {
				return
			}
			accumulated := st.AppendDelta(blockType, delta)
			s.disp.StreamBlockDelta(conversationID, blockType, accumulated)
		},
		OnContentBlockEnd: func(blockType, text string) {
			if st.IsCancelled() {
				return
			}
			hadStart := st.EndBlock()
			s.disp.StreamBlockEnd(conversationID, blockType, text, hadStart)
		},
		OnToolPre: func(name string, input map[string]any) {
			if st.IsCancelled() {
				return
			}
			count := st.IncrementToolCount()
			s.disp.StreamToolStart(conversationID, name, input)
			s.disp.UpdateStatus(conversationID, fmt.Sprintf("Using %s (%d)", name, count))
		},
		OnToolPost: func(name string, input map[string]any, result string) {
			if st.IsCancelled() {
				return
			}
			s.disp.StreamToolEnd(conversationID, name, input, result)
			s.disp.UpdateStatus(conversationID, processingLabel)
		},
		OnExecutionStart: func() {
			if st.IsCancelled() {
				return
			}
			s.disp.UpdateStatus(conversationID, processingLabel)
		},
		OnExecutionEnd: func() {},
		OnUsageUpdate: func() {
			s.disp.StreamUsageUpdate(conversationID)
		},
	})
}
