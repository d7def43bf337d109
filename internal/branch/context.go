// Package branch хранит список филиалов пользователя, текущий филиал, права в
// нём и счётчик смены филиала, по которому зависимые представления понимают,
// что пора перезагрузить данные.
package branch

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// ErrUnknownBranch возвращается при выборе филиала, которого нет в списке.
var ErrUnknownBranch = errors.New("branch: unknown branch")

// Store хранит филиалы и профиль между запусками.
type Store interface {
	Branches(ctx context.Context) []models.Branch
	SetBranches(ctx context.Context, branches []models.Branch)
	CurrentBranch(ctx context.Context) *models.Branch
	SetCurrentBranch(ctx context.Context, branch *models.Branch)
	User(ctx context.Context) *models.User
}

// PermissionFetcher получает права пользователя в филиале.
type PermissionFetcher interface {
	Permissions(ctx context.Context, branchID models.ID) ([]string, error)
}

// Change сообщает о смене филиала.
type Change struct {
	Branch models.Branch
	Key    int
}

// State — снимок состояния контекста.
type State struct {
	Branches    []models.Branch `json:"branches"`
	Current     *models.Branch  `json:"current_branch"`
	IsLoading   bool            `json:"is_loading"`
	ChangeKey   int             `json:"branch_change_key"`
	Permissions []string        `json:"permissions"`
}

// Context — единственный владелец состояния филиалов. Безопасен для
// конкурентного использования.
type Context struct {
	store   Store
	fetcher PermissionFetcher
	log     *slog.Logger

	mu          sync.RWMutex
	branches    []models.Branch
	current     *models.Branch
	loading     bool
	changeKey   int
	permissions []string
	subs        map[int]chan Change
	nextSub     int
}

// New создаёт контекст. fetcher может быть nil: тогда права берутся только из профиля.
func New(store Store, fetcher PermissionFetcher, log *slog.Logger) *Context {
	return &Context{
		store:   store,
		fetcher: fetcher,
		log:     sl.OrDiscard(log),
		subs:    make(map[int]chan Change),
	}
}

// Init загружает сохранённые филиалы. Если текущий филиал не сохранён, а список
// не пуст, текущим становится первый филиал, и этот выбор сохраняется.
// Права сначала берутся из профиля, затем обновляются для текущего филиала.
func (c *Context) Init(ctx context.Context) {
	const op = "branch.Context.Init"

	branches := c.store.Branches(ctx)
	current := c.store.CurrentBranch(ctx)
	if current == nil && len(branches) > 0 {
		first := branches[0]
		current = &first
		c.store.SetCurrentBranch(ctx, current)
		c.log.Info("no stored branch, selected first", sl.Op(op), slog.String("branch_id", first.ID.String()))
	}

	var perms []string
	if u := c.store.User(ctx); u != nil {
		perms = slices.Clone(u.Permissions)
	}

	c.mu.Lock()
	c.branches = branches
	c.current = current
	c.permissions = perms
	c.mu.Unlock()

	if current != nil {
		c.refreshPermissions(ctx, *current)
	}
}

// Reload перечитывает филиалы из хранилища, например после нового входа.
// Счётчик смены увеличивается, если текущий филиал изменился.
func (c *Context) Reload(ctx context.Context) {
	c.mu.RLock()
	prev := c.current
	c.mu.RUnlock()

	c.Init(ctx)

	c.mu.RLock()
	cur := c.current
	c.mu.RUnlock()
	if cur != nil && (prev == nil || prev.ID != cur.ID) {
		c.bump(*cur)
	}
}

// Reset очищает состояние после выхода.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.branches = nil
	c.current = nil
	c.permissions = nil
	c.loading = false
}

// SetCurrentBranch сохраняет филиал, обновляет права для него и увеличивает
// счётчик смены ровно на 1.
func (c *Context) SetCurrentBranch(ctx context.Context, b models.Branch) {
	const op = "branch.Context.SetCurrentBranch"
	c.store.SetCurrentBranch(ctx, &b)

	c.mu.Lock()
	c.current = &b
	c.mu.Unlock()

	c.refreshPermissions(ctx, b)
	key := c.bump(b)
	c.log.Info("branch switched", sl.Op(op), slog.String("branch_id", b.ID.String()), slog.Int("change_key", key))
}

// SelectBranch выбирает филиал из списка по идентификатору.
func (c *Context) SelectBranch(ctx context.Context, id models.ID) (models.Branch, error) {
	c.mu.RLock()
	idx := slices.IndexFunc(c.branches, func(b models.Branch) bool { return b.ID == id })
	var b models.Branch
	if idx >= 0 {
		b = c.branches[idx]
	}
	c.mu.RUnlock()

	if idx < 0 {
		return models.Branch{}, ErrUnknownBranch
	}
	c.SetCurrentBranch(ctx, b)
	return b, nil
}

// CurrentBranch возвращает копию текущего филиала или nil.
// Реализует gateway.BranchSource.
func (c *Context) CurrentBranch(context.Context) *models.Branch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	b := *c.current
	return &b
}

// Branches возвращает копию списка филиалов.
func (c *Context) Branches() []models.Branch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.branches)
}

// ChangeKey возвращает счётчик смены филиала.
func (c *Context) ChangeKey() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changeKey
}

// Permissions возвращает права в текущем филиале.
func (c *Context) Permissions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.permissions)
}

// HasPermission проверяет право в текущем филиале.
func (c *Context) HasPermission(p string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.permissions, p)
}

// Snapshot возвращает полное состояние.
func (c *Context) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := State{
		Branches:    slices.Clone(c.branches),
		IsLoading:   c.loading,
		ChangeKey:   c.changeKey,
		Permissions: slices.Clone(c.permissions),
	}
	if st.Branches == nil {
		st.Branches = []models.Branch{}
	}
	if st.Permissions == nil {
		st.Permissions = []string{}
	}
	if c.current != nil {
		b := *c.current
		st.Current = &b
	}
	return st
}

// Subscribe возвращает канал событий смены филиала и функцию отписки.
// Канал буферизован; если подписчик не успевает, старое событие заменяется новым.
func (c *Context) Subscribe() (<-chan Change, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Change, 1)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ch, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Watch вызывает fn на каждую смену филиала, последовательно, до отмены ctx.
func (c *Context) Watch(ctx context.Context, fn func(context.Context, Change)) {
	ch, unsubscribe := c.Subscribe()
	c.watch(ctx, ch, unsubscribe, fn)
}

// Start подписывается сразу и обрабатывает смены в отдельной горутине.
// Смены после возврата из Start не теряются. done закрывается после отписки.
func (c *Context) Start(ctx context.Context, fn func(context.Context, Change)) (done <-chan struct{}) {
	ch, unsubscribe := c.Subscribe()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		c.watch(ctx, ch, unsubscribe, fn)
	}()
	return finished
}

func (c *Context) watch(ctx context.Context, ch <-chan Change, unsubscribe func(), fn func(context.Context, Change)) {
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			fn(ctx, change)
		}
	}
}

func (c *Context) bump(b models.Branch) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changeKey++
	change := Change{Branch: b, Key: c.changeKey}
	for _, ch := range c.subs {
		select {
		case ch <- change:
		default:
			// подписчику важна только последняя смена
			select {
			case <-ch:
			default:
			}
			ch <- change
		}
	}
	return c.changeKey
}

// refreshPermissions запрашивает права филиала. При ошибке права сбрасываются.
func (c *Context) refreshPermissions(ctx context.Context, b models.Branch) {
	const op = "branch.Context.refreshPermissions"
	if c.fetcher == nil {
		return
	}

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	perms, err := c.fetcher.Permissions(ctx, b.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.current == nil || c.current.ID != b.ID {
		// за время запроса выбрали другой филиал
		return
	}
	if err != nil {
		c.log.Error("failed to fetch permissions, denying by default", sl.Op(op),
			slog.String("branch_id", b.ID.String()), sl.Err(err))
		c.permissions = []string{}
		return
	}
	c.permissions = slices.Clone(perms)
}
