package presale_server

import (
	"time"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/code/data/sale"
	"github.com/code-payments/presale-server/pkg/database/query"
)

type saleView struct {
	Address             string    `json:"address"`
	Authority           string    `json:"authority"`
	Mint                string    `json:"mint"`
	Treasury            string    `json:"treasury"`
	Vault               string    `json:"vault"`
	VaultBump           uint8     `json:"vault_bump"`
	PricePerUnit        Amount    `json:"price_per_unit"`
	TotalAllocation     Amount    `json:"total_allocation"`
	UnitsSold           Amount    `json:"units_sold"`
	RemainingAllocation Amount    `json:"remaining_allocation"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

func toSaleView(record *sale.Record) *saleView {
	return &saleView{
		Address:             record.Address,
		Authority:           record.Authority,
		Mint:                record.Mint,
		Treasury:            record.Treasury,
		Vault:               record.VaultAddress,
		VaultBump:           record.VaultBump,
		PricePerUnit:        Amount(record.PricePerUnit),
		TotalAllocation:     Amount(record.TotalAllocation),
		UnitsSold:           Amount(record.UnitsSold),
		RemainingAllocation: Amount(record.RemainingAllocation()),
		IsActive:            record.IsActive,
		CreatedAt:           record.CreatedAt,
	}
}

type positionView struct {
	Cursor     string    `json:"cursor"`
	Address    string    `json:"address"`
	Bump       uint8     `json:"bump"`
	Sale       string    `json:"sale"`
	Mint       string    `json:"mint"`
	Buyer      string    `json:"buyer"`
	Vault      string    `json:"vault"`
	Amount     Amount    `json:"amount"`
	UnlockAt   int64     `json:"unlock_at"`
	IsUnlocked bool      `json:"is_unlocked"`
	IsClaimed  bool      `json:"is_claimed"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPositionView(record *position.Record, now time.Time) *positionView {
	return &positionView{
		Cursor:     query.ToCursor(record.Id).ToBase58(),
		Address:    record.Address,
		Bump:       record.Bump,
		Sale:       record.Sale,
		Mint:       record.Mint,
		Buyer:      record.Buyer,
		Vault:      record.VaultAddress,
		Amount:     Amount(record.Amount),
		UnlockAt:   record.UnlockAt,
		IsUnlocked: record.IsUnlocked(now.Unix()),
		IsClaimed:  record.IsClaimed,
		CreatedAt:  record.CreatedAt,
	}
}

type eventView struct {
	Cursor    string    `json:"cursor"`
	EventId   string    `json:"event_id"`
	Type      string    `json:"type"`
	Sale      string    `json:"sale"`
	Actor     string    `json:"actor"`
	Position  *string   `json:"position,omitempty"`
	Amount    Amount    `json:"amount"`
	Payment   Amount    `json:"payment"`
	UnlockAt  *int64    `json:"unlock_at,omitempty"`
	IsActive  *bool     `json:"is_active,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventView(record *event.Record) *eventView {
	return &eventView{
		Cursor:    query.ToCursor(record.Id).ToBase58(),
		EventId:   record.EventId,
		Type:      record.EventType.String(),
		Sale:      record.Sale,
		Actor:     record.Actor,
		Position:  record.Position,
		Amount:    Amount(record.Amount),
		Payment:   Amount(record.Payment),
		UnlockAt:  record.UnlockAt,
		IsActive:  record.IsActive,
		CreatedAt: record.CreatedAt,
	}
}

type saleVaultView struct {
	Mint      string `json:"mint"`
	Vault     string `json:"vault"`
	VaultBump uint8  `json:"vault_bump"`
}

func toSaleVaultView(accounts *common.SaleVaultAccounts) *saleVaultView {
	return &saleVaultView{
		Mint:      accounts.Mint.PublicKey().ToBase58(),
		Vault:     accounts.Vault.PublicKey().ToBase58(),
		VaultBump: accounts.VaultBump,
	}
}

type positionAccountsView struct {
	Buyer        string `json:"buyer"`
	Mint         string `json:"mint"`
	Position     string `json:"position"`
	PositionBump uint8  `json:"position_bump"`
	Vault        string `json:"vault"`
	FreeBalance  string `json:"free_balance"`
}

func toPositionAccountsView(accounts *common.PositionAccounts) *positionAccountsView {
	return &positionAccountsView{
		Buyer:        accounts.Buyer.PublicKey().ToBase58(),
		Mint:         accounts.Mint.PublicKey().ToBase58(),
		Position:     accounts.Position.PublicKey().ToBase58(),
		PositionBump: accounts.PositionBump,
		Vault:        accounts.Vault.PublicKey().ToBase58(),
		FreeBalance:  accounts.FreeBalance.PublicKey().ToBase58(),
	}
}
