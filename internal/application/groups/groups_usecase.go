package groups

import (
	"context"
	"fmt"
	"log"
	"strings"

	"stonx/internal/domain/group"
	"stonx/internal/domain/marketdata"
)

// Repository 定義群組儲存介面。
type Repository interface {
	ListGroups(ctx context.Context) ([]group.Group, error)
	GetGroup(ctx context.Context, id string) (group.Group, error)
	// CreateGroup 在 ID 已存在時回傳 group.ErrGroupExists。
	CreateGroup(ctx context.Context, g group.Group) error
	// UpsertGroup 覆寫名稱、類型與成員，用於預設資料。
	UpsertGroup(ctx context.Context, g group.Group) error
	ReplaceMembers(ctx context.Context, id string, symbols []string) error
	DeleteGroup(ctx context.Context, id string) error
}

// TickerStore 確保代號存在。
type TickerStore interface {
	UpsertTicker(ctx context.Context, symbol string) error
}

// CreateInput 為建立群組的輸入。
type CreateInput struct {
	Name    string     `json:"name"`
	Type    group.Type `json:"type"`
	Symbols []string   `json:"symbols"`
}

// UseCase 提供群組的 CRUD。
type UseCase struct {
	repo    Repository
	tickers TickerStore
}

func NewUseCase(repo Repository, tickers TickerStore) *UseCase {
	return &UseCase{repo: repo, tickers: tickers}
}

// List 依名稱排序回傳所有群組。
func (u *UseCase) List(ctx context.Context) ([]group.Group, error) {
	return u.repo.ListGroups(ctx)
}

func (u *UseCase) Get(ctx context.Context, id string) (group.Group, error) {
	return u.repo.GetGroup(ctx, strings.TrimSpace(id))
}

// Create 以名稱 slug 作為 ID 建立群組。
func (u *UseCase) Create(ctx context.Context, input CreateInput) (group.Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return group.Group{}, &marketdata.ValidationError{Reasons: []string{"name is required"}}
	}
	typ := input.Type
	if typ == "" {
		typ = group.TypeManual
	}
	if !typ.Valid() {
		return group.Group{}, &marketdata.ValidationError{Reasons: []string{fmt.Sprintf("unsupported group type %q", typ)}}
	}
	id := group.Slugify(name)
	if id == "" {
		return group.Group{}, &marketdata.ValidationError{Reasons: []string{"name must contain letters or digits"}}
	}

	symbols := group.UniqueSymbols(input.Symbols)
	if err := u.ensureTickers(ctx, symbols); err != nil {
		return group.Group{}, err
	}

	g := group.Group{ID: id, Name: name, Type: typ, Symbols: symbols}
	if err := u.repo.CreateGroup(ctx, g); err != nil {
		return group.Group{}, err
	}
	return u.repo.GetGroup(ctx, id)
}

// ReplaceMembers 以新清單整批取代成員。
func (u *UseCase) ReplaceMembers(ctx context.Context, id string, symbols []string) (group.Group, error) {
	id = strings.TrimSpace(id)
	if _, err := u.repo.GetGroup(ctx, id); err != nil {
		return group.Group{}, err
	}
	unique := group.UniqueSymbols(symbols)
	if err := u.ensureTickers(ctx, unique); err != nil {
		return group.Group{}, err
	}
	if err := u.repo.ReplaceMembers(ctx, id, unique); err != nil {
		return group.Group{}, err
	}
	return u.repo.GetGroup(ctx, id)
}

func (u *UseCase) Delete(ctx context.Context, id string) error {
	return u.repo.DeleteGroup(ctx, strings.TrimSpace(id))
}

// Templates 回傳內建起始群組。
func (u *UseCase) Templates() []group.Template {
	return group.Templates()
}

// Seed 寫入預設群組，重複執行結果相同。
func (u *UseCase) Seed(ctx context.Context) error {
	for _, g := range group.Defaults() {
		g.Symbols = group.UniqueSymbols(g.Symbols)
		if err := u.ensureTickers(ctx, g.Symbols); err != nil {
			return err
		}
		if err := u.repo.UpsertGroup(ctx, g); err != nil {
			return fmt.Errorf("seed group %s: %w", g.ID, err)
		}
	}
	log.Printf("[Groups] seeded %d default groups", len(group.Defaults()))
	return nil
}

// DistinctSymbols 彙整所有群組的成員（依首次出現順序）。
func (u *UseCase) DistinctSymbols(ctx context.Context) ([]string, error) {
	all, err := u.repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, g := range all {
		symbols = append(symbols, g.Symbols...)
	}
	return group.UniqueSymbols(symbols), nil
}

func (u *UseCase) ensureTickers(ctx context.Context, symbols []string) error {
	if u.tickers == nil {
		return nil
	}
	for _, s := range symbols {
		if err := u.tickers.UpsertTicker(ctx, s); err != nil {
			return fmt.Errorf("upsert ticker %s: %w", s, err)
		}
	}
	return nil
}
