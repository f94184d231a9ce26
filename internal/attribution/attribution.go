// Package attribution orchestrates the multi-turn clarification dialog that
// turns a parsed declaration into ledger contributions. Pending dialog state
// is keyed by declaration identity; the ledger is only written through
// resolved attributions.
package attribution

import (
	"errors"
	"math"
	"sync"

	"github.com/farmstats/farmbot/internal/category"
	"github.com/farmstats/farmbot/internal/ledger"
	"github.com/farmstats/farmbot/internal/normalize"
	"github.com/farmstats/farmbot/internal/parser"
)

// Dialog stages per declaration.
type Stage int

const (
	StageAwaitingSingleAnswer Stage = iota + 1
	StageAwaitingSplit
	StageAwaitingModeChoice
	StageResolved
)

// At most this many referenced participants are attributed per declaration.
const MaxParticipants = 3

var (
	ErrUnknownDeclaration = errors.New("no pending attribution for declaration")
	ErrAlreadyResolved    = errors.New("attribution already resolved")
	ErrWrongStage         = errors.New("input does not match the pending dialog stage")
)

// Declaration is one parsed earnings-report event.
type Declaration struct {
	ID           string
	HostID       string
	Text         string
	Amount       int64
	Category     category.Category
	Participants []string
}

// NewDeclaration parses raw text into a Declaration. Mentioned ids are capped
// at MaxParticipants, deduplicated, and never include the host. ok is false
// when the text is not a reportable event (amount 0).
func NewDeclaration(id, hostID, text string, mentioned []string) (Declaration, bool) {
	amount, cat := parser.Parse(text)

	var participants []string
	seen := map[string]bool{hostID: true}
	for _, uid := range mentioned {
		if len(participants) == MaxParticipants {
			break
		}
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		participants = append(participants, uid)
	}

	decl := Declaration{
		ID:           id,
		HostID:       hostID,
		Text:         text,
		Amount:       amount,
		Category:     cat,
		Participants: participants,
	}
	return decl, amount != 0
}

// Prompt tells the presentation layer which clarification to render after a
// declaration is opened.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptSingleAnswer
	PromptSplit
)

// Resolution summarizes what a clarification input did, for confirmation
// messages.
type Resolution struct {
	NeedsMode       bool
	HostAmount      int64
	SupporterAmount int64
	Bonus           int64
	Recipients      int
}

type pending struct {
	decl   Declaration
	stage  Stage
	shares map[string]int64
}

// Service owns all pending attributions. Every credited amount flows through
// the ledger store's Apply, called while the service lock is held, so inputs
// for the same declaration can never race.
type Service struct {
	mu      sync.Mutex
	store   *ledger.Store
	pending map[string]*pending
}

func NewService(store *ledger.Store) *Service {
	return &Service{store: store, pending: make(map[string]*pending)}
}

// Open registers a declaration and returns the clarification prompt the
// presentation layer should render. A fresh declaration supersedes any
// pending attribution with the same identity.
//
// For the split path the per-category event counters of the host and every
// participant are bumped immediately: event counting is decoupled from the
// payout dialog and happens exactly once, however the dialog later resolves.
// A declaration with no participants resolves on the spot with the host
// credited the full amount.
func (s *Service) Open(decl Declaration) Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()

	if decl.Category == category.Vicent {
		s.pending[decl.ID] = &pending{decl: decl, stage: StageAwaitingSingleAnswer}
		return PromptSingleAnswer
	}

	s.store.Apply(ledger.Contribution{
		UserID:     decl.HostID,
		Category:   decl.Category,
		Role:       ledger.RoleHost,
		CountEvent: true,
	})
	for _, uid := range decl.Participants {
		s.store.Apply(ledger.Contribution{
			UserID:     uid,
			Category:   decl.Category,
			Role:       ledger.RoleSupporter,
			CountEvent: true,
		})
	}

	if len(decl.Participants) == 0 {
		s.store.Apply(ledger.Contribution{
			UserID:   decl.HostID,
			Amount:   decl.Amount,
			Category: decl.Category,
			Role:     ledger.RoleHost,
		})
		return PromptNone
	}

	s.pending[decl.ID] = &pending{decl: decl, stage: StageAwaitingSplit}
	return PromptSplit
}

// Declaration returns the pending declaration and stage for id, used by the
// presentation layer to rebuild dialog forms.
func (s *Service) Declaration(id string) (Declaration, Stage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return Declaration{}, 0, false
	}
	return p.decl, p.stage, true
}

// AnswerFirstTime resolves a single-answer (Vicent) attribution. The host
// payout depends on the yes/no answer; every participant receives the flat
// supporter amount. Repeated input for a resolved id is a no-op.
func (s *Service) AnswerFirstTime(id, answer string) (Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pendingAt(id, StageAwaitingSingleAnswer)
	if err != nil {
		return Resolution{}, err
	}

	hostAmount := category.VicentHostRepeat
	if normalize.Text(answer) == "SIM" {
		hostAmount = category.VicentHostFirstTime
	}

	for _, uid := range p.decl.Participants {
		s.store.Apply(ledger.Contribution{
			UserID:     uid,
			Amount:     category.VicentSupporter,
			Category:   p.decl.Category,
			Role:       ledger.RoleSupporter,
			HostID:     p.decl.HostID,
			CountEvent: true,
		})
	}
	s.store.Apply(ledger.Contribution{
		UserID:     p.decl.HostID,
		Amount:     hostAmount,
		Category:   p.decl.Category,
		Role:       ledger.RoleHost,
		CountEvent: true,
	})

	p.stage = StageResolved
	return Resolution{
		HostAmount:      hostAmount,
		SupporterAmount: category.VicentSupporter,
		Recipients:      len(p.decl.Participants),
	}, nil
}

// SubmitSplit resolves the percentage-split stage. Each participant's share is
// the rounded percentage of the declared amount (missing or unparsable inputs
// count as 0); the host keeps the remainder. The remainder is applied as-is,
// even when the percentages sum above 100 and it goes negative.
//
// If the elite challenge is affirmed, the flat bonus is paid immediately for
// flat-bonus categories; the variable-mode category advances to the mode
// stage instead.
func (s *Service) SubmitSplit(id string, percents map[string]float64, elite string) (Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pendingAt(id, StageAwaitingSplit)
	if err != nil {
		return Resolution{}, err
	}

	var distributed int64
	p.shares = make(map[string]int64, len(p.decl.Participants))
	for _, uid := range p.decl.Participants {
		share := int64(math.Round(float64(p.decl.Amount) * percents[uid] / 100))
		distributed += share
		p.shares[uid] = share
		s.store.Apply(ledger.Contribution{
			UserID:   uid,
			Amount:   share,
			Category: p.decl.Category,
			Role:     ledger.RoleSupporter,
			HostID:   p.decl.HostID,
		})
	}

	hostShare := p.decl.Amount - distributed
	s.store.Apply(ledger.Contribution{
		UserID:   p.decl.HostID,
		Amount:   hostShare,
		Category: p.decl.Category,
		Role:     ledger.RoleHost,
	})

	res := Resolution{HostAmount: hostShare, Recipients: len(p.decl.Participants)}

	if normalize.Text(elite) != "SIM" {
		p.stage = StageResolved
		return res, nil
	}

	if category.HasVariableMode(p.decl.Category) {
		p.stage = StageAwaitingModeChoice
		res.NeedsMode = true
		return res, nil
	}

	if bonus, ok := category.FlatEliteBonus(p.decl.Category); ok {
		res.Bonus = bonus
		res.Recipients = s.applyBonusLocked(p, bonus, "")
	}
	p.stage = StageResolved
	return res, nil
}

// ChooseMode resolves the variable-mode stage: the tier-selected bonus goes to
// every distinct user among host, participants and the clarifying user.
func (s *Service) ChooseMode(id, clarifierID, mode string) (Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pendingAt(id, StageAwaitingModeChoice)
	if err != nil {
		return Resolution{}, err
	}

	bonus := category.ModeBonus(mode)
	recipients := s.applyBonusLocked(p, bonus, clarifierID)
	p.stage = StageResolved
	return Resolution{Bonus: bonus, Recipients: recipients}, nil
}

// applyBonusLocked pays a flat bonus to the distinct participant set of p
// (host, mentioned participants, and extraID when non-empty). Bonus payouts
// never bump event counts and carry no supporter relation.
func (s *Service) applyBonusLocked(p *pending, bonus int64, extraID string) int {
	recipients := make([]string, 0, len(p.decl.Participants)+2)
	seen := make(map[string]bool)
	for _, uid := range append(append([]string{p.decl.HostID}, p.decl.Participants...), extraID) {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		recipients = append(recipients, uid)
	}
	for _, uid := range recipients {
		s.store.Apply(ledger.Contribution{
			UserID:   uid,
			Amount:   bonus,
			Category: p.decl.Category,
			Role:     ledger.RoleSupporter,
		})
	}
	return len(recipients)
}

func (s *Service) pendingAt(id string, stage Stage) (*pending, error) {
	p, ok := s.pending[id]
	if !ok {
		return nil, ErrUnknownDeclaration
	}
	if p.stage == StageResolved {
		return nil, ErrAlreadyResolved
	}
	if p.stage != stage {
		return nil, ErrWrongStage
	}
	return p, nil
}
