package service

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("development", "error")
	os.Exit(m.Run())
}

// 인메모리 페이크 스토어. 실제 저장소와 동일하게 조건부 쓰기로만 상태를 바꾼다

type fakeBattleStore struct {
	mu      sync.Mutex
	battles map[string]*models.Battle
}

func newFakeBattleStore() *fakeBattleStore {
	return &fakeBattleStore{battles: make(map[string]*models.Battle)}
}

func (f *fakeBattleStore) Create(battle *models.Battle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	battle.Status = models.BattleStatusWaiting
	battle.CreatedAt = time.Now()
	clone := *battle
	f.battles[battle.ID] = &clone
	return nil
}

func (f *fakeBattleStore) FindByID(id string) (*models.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	battle, ok := f.battles[id]
	if !ok {
		return nil, nil
	}
	clone := *battle
	return &clone, nil
}

func (f *fakeBattleStore) FindByStatus(status models.BattleStatus, limit, offset int) ([]*models.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Battle
	for _, b := range f.battles {
		if b.Status == status {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeBattleStore) Transition(id string, from, to models.BattleStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	battle, ok := f.battles[id]
	if !ok || battle.Status != from {
		return false, nil
	}
	battle.Status = to
	now := time.Now()
	switch to {
	case models.BattleStatusInProgress:
		battle.StartedAt = &now
	case models.BattleStatusCompleted:
		battle.EndedAt = &now
	}
	return true, nil
}

func (f *fakeBattleStore) SetWinners(id string, winnerIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if battle, ok := f.battles[id]; ok {
		battle.WinnerIDs = winnerIDs
	}
	return nil
}

type fakeParticipantStore struct {
	mu      sync.Mutex
	battles *fakeBattleStore
	seats   map[string][]*models.Participant
	loot    map[string][]*models.LootItem
}

func newFakeParticipantStore(battles *fakeBattleStore) *fakeParticipantStore {
	return &fakeParticipantStore{
		battles: battles,
		seats:   make(map[string][]*models.Participant),
		loot:    make(map[string][]*models.LootItem),
	}
}

func (f *fakeParticipantStore) battleStatus(battleID string) (models.BattleStatus, int, bool) {
	f.battles.mu.Lock()
	defer f.battles.mu.Unlock()
	battle, ok := f.battles.battles[battleID]
	if !ok {
		return "", 0, false
	}
	return battle.Status, battle.MaxPlayers, true
}

func (f *fakeParticipantStore) AddIfWaiting(p *models.Participant) (bool, error) {
	status, maxPlayers, ok := f.battleStatus(p.BattleID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok || status != models.BattleStatusWaiting {
		return false, nil
	}
	if len(f.seats[p.BattleID]) >= maxPlayers {
		return false, nil
	}
	for _, existing := range f.seats[p.BattleID] {
		if existing.UserID == p.UserID {
			return false, nil
		}
	}
	p.JoinedAt = time.Now()
	clone := *p
	f.seats[p.BattleID] = append(f.seats[p.BattleID], &clone)
	return true, nil
}

func (f *fakeParticipantStore) FindByBattle(battleID string) ([]*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Participant, 0, len(f.seats[battleID]))
	for _, p := range f.seats[battleID] {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeParticipantStore) MarkReady(battleID, userID string) (bool, error) {
	status, _, ok := f.battleStatus(battleID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok || status != models.BattleStatusWaiting {
		return false, nil
	}
	for _, p := range f.seats[battleID] {
		if p.UserID == userID {
			p.IsReady = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantStore) AppendLoot(battleID, userID string, boxIndex int, items []*models.LootItem) (bool, error) {
	status, _, ok := f.battleStatus(battleID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok || status != models.BattleStatusInProgress {
		return false, nil
	}
	for _, p := range f.seats[battleID] {
		if p.UserID == userID {
			for _, item := range items {
				p.TotalValue += item.Value
			}
			f.loot[battleID] = append(f.loot[battleID], items...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantStore) FindLootByBattle(battleID string) ([]*models.LootItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.LootItem{}, f.loot[battleID]...), nil
}

type fakeWalletStore struct {
	mu       sync.Mutex
	balances map[string]int64
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{balances: make(map[string]int64)}
}

func (f *fakeWalletStore) DeductBalance(userID string, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return false, nil
	}
	f.balances[userID] -= amount
	return true, nil
}

func (f *fakeWalletStore) CreditBalance(userID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += amount
	return nil
}

func (f *fakeWalletStore) balance(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

type fakePublisher struct {
	mu     sync.Mutex
	fail   bool
	events []*models.BattleEvent
}

func (f *fakePublisher) Publish(ctx context.Context, battleID string, event *models.BattleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("channel unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.events))
	for i, e := range f.events {
		types[i] = e.Type
	}
	return types
}

type testEnv struct {
	svc       *BattleService
	battles   *fakeBattleStore
	seats     *fakeParticipantStore
	wallets   *fakeWalletStore
	publisher *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	battles := newFakeBattleStore()
	seats := newFakeParticipantStore(battles)
	wallets := newFakeWalletStore()
	publisher := &fakePublisher{}
	loot, err := NewLootService(DefaultCatalogue(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewLootService() error = %v", err)
	}
	return &testEnv{
		svc:       NewBattleService(battles, seats, wallets, loot, publisher),
		battles:   battles,
		seats:     seats,
		wallets:   wallets,
		publisher: publisher,
	}
}

// createBattle 잔액을 넉넉히 채운 사용자로 배틀 생성
func (e *testEnv) createBattle(t *testing.T, creator string) *models.Battle {
	t.Helper()
	e.wallets.CreditBalance(creator, 10000)
	battle, err := e.svc.Create(creator, []int{0, 1}, 2)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return battle
}

func TestBattleService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	bot, err := env.svc.AddBot(battle.ID)
	if err != nil {
		t.Fatalf("AddBot() error = %v", err)
	}
	if !bot.IsBot || !bot.IsReady {
		t.Errorf("bot created with isBot=%v isReady=%v, want both true", bot.IsBot, bot.IsReady)
	}

	if err := env.svc.Start(battle.ID, "alice"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	started, _ := env.battles.FindByID(battle.ID)
	if started.Status != models.BattleStatusInProgress {
		t.Errorf("status after Start = %s, want in_progress", started.Status)
	}
	if started.StartedAt == nil {
		t.Error("startedAt not set by Start")
	}

	items, err := env.svc.OpenBox(battle.ID, "alice", 0)
	if err != nil {
		t.Fatalf("OpenBox() error = %v", err)
	}
	if len(items) == 0 {
		t.Fatal("OpenBox() returned no items")
	}

	winners, err := env.svc.End(battle.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if len(winners) != 1 || winners[0] != "alice" {
		t.Errorf("winners = %v, want [alice]", winners)
	}

	ended, _ := env.battles.FindByID(battle.ID)
	if ended.Status != models.BattleStatusCompleted {
		t.Errorf("status after End = %s, want completed", ended.Status)
	}
	if ended.EndedAt == nil {
		t.Error("endedAt not set by End")
	}

	expected := []string{
		models.EventBotAdded,
		models.EventBattleStarted,
		models.EventBoxOpened,
		models.EventBattleEnded,
	}
	got := env.publisher.eventTypes()
	if len(got) != len(expected) {
		t.Fatalf("published events = %v, want %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], expected[i])
		}
	}
}

func TestBattleService_AddBot_AfterStart(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	if err := env.svc.Start(battle.ID, "alice"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err := env.svc.AddBot(battle.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("AddBot() after start error = %v, want ErrInvalidTransition", err)
	}

	participants, _ := env.seats.FindByBattle(battle.ID)
	if len(participants) != 1 {
		t.Errorf("participant count = %d, want 1 (no bot created)", len(participants))
	}
}

func TestBattleService_AddBot_UnknownBattle(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AddBot("no-such-battle")
	if !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("AddBot() error = %v, want ErrBattleNotFound", err)
	}
}

func TestBattleService_Start_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	const callers = 8
	results := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- env.svc.Start(battle.ID, "alice")
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("losing Start() error = %v, want ErrInvalidTransition", err)
		}
	}

	if successes != 1 {
		t.Errorf("%d Start() calls succeeded, want exactly 1", successes)
	}
}

func TestBattleService_Start_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	err := env.svc.Start(battle.ID, "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Start() without caller error = %v, want ErrUnauthorized", err)
	}

	current, _ := env.battles.FindByID(battle.ID)
	if current.Status != models.BattleStatusWaiting {
		t.Errorf("status = %s, want waiting (no mutation)", current.Status)
	}
}

func TestBattleService_OpenBox_InvalidBox(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")
	if err := env.svc.Start(battle.ID, "alice"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err := env.svc.OpenBox(battle.ID, "alice", 999)
	if !errors.Is(err, ErrInvalidBox) {
		t.Fatalf("OpenBox(999) error = %v, want ErrInvalidBox", err)
	}

	loot, _ := env.seats.FindLootByBattle(battle.ID)
	if len(loot) != 0 {
		t.Errorf("loot appended on invalid box: %v", loot)
	}
}

func TestBattleService_OpenBox_BeforeStart(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	_, err := env.svc.OpenBox(battle.ID, "alice", 0)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("OpenBox() before start error = %v, want ErrInvalidTransition", err)
	}
}

func TestBattleService_OpenBox_AccumulatesTotalValue(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")
	if err := env.svc.Start(battle.ID, "alice"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var expected int64
	for i := 0; i < 5; i++ {
		items, err := env.svc.OpenBox(battle.ID, "alice", 2)
		if err != nil {
			t.Fatalf("OpenBox() #%d error = %v", i, err)
		}
		for _, item := range items {
			expected += item.Value
		}
	}

	participants, _ := env.seats.FindByBattle(battle.ID)
	if len(participants) != 1 {
		t.Fatalf("participant count = %d, want 1", len(participants))
	}
	if participants[0].TotalValue != expected {
		t.Errorf("totalValue = %d, want %d (sum of all loot batches)", participants[0].TotalValue, expected)
	}
}

func TestBattleService_End_FromWaiting(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	_, err := env.svc.End(battle.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("End() from waiting error = %v, want ErrInvalidTransition", err)
	}
}

func TestBattleService_End_TieProducesMultipleWinners(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	env.wallets.CreditBalance("bob", 10000)
	if _, err := env.svc.Join(battle.ID, "bob"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if err := env.svc.Start(battle.ID, "alice"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// 동률 상황을 직접 구성
	env.seats.mu.Lock()
	for _, p := range env.seats.seats[battle.ID] {
		p.TotalValue = 300
	}
	env.seats.mu.Unlock()

	winners, err := env.svc.End(battle.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if len(winners) != 2 {
		t.Fatalf("winners = %v, want both tied participants", winners)
	}

	ended, _ := env.battles.FindByID(battle.ID)
	if len(ended.WinnerIDs) != 2 {
		t.Errorf("persisted winnerIds = %v, want 2 entries", ended.WinnerIDs)
	}
}

func TestBattleService_PublishFailureDoesNotAffectCommit(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")
	env.publisher.fail = true

	if err := env.svc.Start(battle.ID, "alice"); err != nil {
		t.Fatalf("Start() with failing publisher error = %v, want nil", err)
	}

	current, _ := env.battles.FindByID(battle.ID)
	if current.Status != models.BattleStatusInProgress {
		t.Errorf("status = %s, want in_progress despite publish failure", current.Status)
	}
}

func TestBattleService_Join(t *testing.T) {
	t.Run("duplicate join rejected and refunded", func(t *testing.T) {
		env := newTestEnv(t)
		battle := env.createBattle(t, "alice")

		before := env.wallets.balance("alice")
		_, err := env.svc.Join(battle.ID, "alice")
		if !errors.Is(err, ErrParticipantExists) {
			t.Fatalf("Join() duplicate error = %v, want ErrParticipantExists", err)
		}
		if got := env.wallets.balance("alice"); got != before {
			t.Errorf("balance after rejected join = %d, want %d (refunded)", got, before)
		}
	})

	t.Run("insufficient balance", func(t *testing.T) {
		env := newTestEnv(t)
		battle := env.createBattle(t, "alice")

		_, err := env.svc.Join(battle.ID, "poor-bob")
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("Join() error = %v, want ErrInsufficientBalance", err)
		}
	})

	t.Run("full battle rejected", func(t *testing.T) {
		env := newTestEnv(t)
		battle := env.createBattle(t, "alice")

		if _, err := env.svc.AddBot(battle.ID); err != nil {
			t.Fatalf("AddBot() error = %v", err)
		}

		env.wallets.CreditBalance("bob", 10000)
		_, err := env.svc.Join(battle.ID, "bob")
		if !errors.Is(err, ErrBattleFull) {
			t.Fatalf("Join() on full battle error = %v, want ErrBattleFull", err)
		}
	})
}

func TestBattleService_Ready(t *testing.T) {
	env := newTestEnv(t)
	battle := env.createBattle(t, "alice")

	if err := env.svc.Ready(battle.ID, "alice"); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}

	participants, _ := env.seats.FindByBattle(battle.ID)
	if !participants[0].IsReady {
		t.Error("participant not marked ready")
	}

	if err := env.svc.Ready(battle.ID, "stranger"); !errors.Is(err, ErrParticipantNotFound) {
		t.Errorf("Ready() for non-participant error = %v, want ErrParticipantNotFound", err)
	}
}
