package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/assemble"
	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
	"github.com/vchirila/billchat/internal/intent"
	"github.com/vchirila/billchat/internal/llm"
	"github.com/vchirila/billchat/internal/store"
)

// BillLoader is the slice of the store the driver needs.
type BillLoader interface {
	Load(userID string) (entity.UserAccount, error)
}

var _ BillLoader = (*store.Store)(nil)

// Driver runs conversations: it injects the user's bill context on the first
// question of a session, forwards the transcript to the completion backend
// and enforces the per-session question quota.
type Driver struct {
	bills        BillLoader
	assembler    *assemble.Assembler
	completer    llm.Completer
	sessions     *Sessions
	maxQuestions int
	logger       *zap.Logger
}

// NewDriver wires a Driver. maxQuestions 0 means unlimited.
func NewDriver(bills BillLoader, assembler *assemble.Assembler, completer llm.Completer, sessions *Sessions, maxQuestions int, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		bills:        bills,
		assembler:    assembler,
		completer:    completer,
		sessions:     sessions,
		maxQuestions: maxQuestions,
		logger:       logger,
	}
}

// Answer is one completed chat turn.
type Answer struct {
	SessionID string
	Reply     string
	Intent    intent.Result
	Usage     llm.Usage
	Questions int
	Remaining int // -1 when unlimited
}

// Ask answers one question. An empty sessionID starts a new session for the
// user. The session is only mutated after the backend succeeds, so a failed
// turn leaves the conversation unchanged and does not consume quota.
func (d *Driver) Ask(ctx context.Context, sessionID, userID, question string) (Answer, error) {
	if question == "" {
		return Answer{}, common.NewAppError("QUESTION_EMPTY", "question is required", common.ErrInvalidInput)
	}

	var sess *Session
	var err error
	if sessionID == "" {
		sess = d.sessions.Start(userID)
	} else {
		sess, err = d.sessions.Get(sessionID)
		if err != nil {
			return Answer{}, err
		}
	}

	// only this session waits out a slow completion
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if d.maxQuestions > 0 && sess.Questions >= d.maxQuestions {
		return Answer{}, common.NewAppError("QUOTA_EXCEEDED", "question quota for this session is used up", common.ErrInvalidInput)
	}

	// build the candidate transcript without touching the session yet
	candidate := make([]llm.Message, len(sess.Messages), len(sess.Messages)+2)
	copy(candidate, sess.Messages)

	var res intent.Result
	injected := sess.ContextInjected
	if !injected {
		acct, err := d.bills.Load(sess.UserID)
		if err != nil {
			return Answer{}, err
		}
		bctx, err := d.assembler.Build(acct.Bills, question)
		if err != nil {
			return Answer{}, err
		}
		res = bctx.Intent
		candidate = append(candidate, llm.Message{Role: llm.RoleUser, Content: bctx.Text})
		injected = true
	} else {
		res = intent.Classify(question)
		candidate = append(candidate, llm.Message{Role: llm.RoleUser, Content: question})
	}

	reply, usage, err := d.completer.Complete(ctx, candidate)
	if err != nil {
		d.logger.Error("chat.ask.fail",
			zap.String("session_id", sess.ID),
			zap.String("user_id", sess.UserID),
			zap.Error(err))
		return Answer{}, common.NewAppError("COMPLETION_FAILED", "completion backend failed", err)
	}

	// commit
	sess.Messages = append(candidate, llm.Message{Role: llm.RoleAssistant, Content: reply})
	sess.ContextInjected = injected
	sess.Questions++
	sess.Usage.PromptTokens += usage.PromptTokens
	sess.Usage.CompletionTokens += usage.CompletionTokens
	sess.Usage.TotalTokens += usage.TotalTokens

	remaining := -1
	if d.maxQuestions > 0 {
		remaining = d.maxQuestions - sess.Questions
	}
	d.logger.Info("chat.ask.ok",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID),
		zap.String("intent", string(res.Category)),
		zap.Int("questions", sess.Questions),
		zap.Int("total_tokens", sess.Usage.TotalTokens))
	return Answer{
		SessionID: sess.ID,
		Reply:     reply,
		Intent:    res,
		Usage:     usage,
		Questions: sess.Questions,
		Remaining: remaining,
	}, nil
}

// Reset forgets a session so the next question starts a fresh conversation
// with the context injected again.
func (d *Driver) Reset(sessionID string) {
	d.sessions.Drop(sessionID)
	d.logger.Info("chat.reset.ok", zap.String("session_id", sessionID))
}

// Session exposes a live session for the API layer.
func (d *Driver) Session(id string) (*Session, error) {
	return d.sessions.Get(id)
}
