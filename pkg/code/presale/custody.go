package presale

import (
	"github.com/code-payments/presale-server/pkg/cache"
	"github.com/code-payments/presale-server/pkg/code/common"
)

// Derived custody addresses never change for a given set of inputs, so
// entries are never invalidated. The cache only bounds the bump search work
// for hot sales and buyers.
type custodyResolver struct {
	saleVaults cache.Cache[*common.SaleVaultAccounts]
	positions  cache.Cache[*common.PositionAccounts]
}

func newCustodyResolver(budget int) *custodyResolver {
	if budget < 1 {
		budget = 1
	}

	return &custodyResolver{
		saleVaults: cache.NewCache[*common.SaleVaultAccounts]("presale_sale_vaults", budget),
		positions:  cache.NewCache[*common.PositionAccounts]("presale_positions", budget),
	}
}

func (r *custodyResolver) saleVault(mint *common.Account) (*common.SaleVaultAccounts, error) {
	key := mint.PublicKey().ToBase58()

	if cached, ok := r.saleVaults.Retrieve(key); ok {
		return cached, nil
	}

	accounts, err := common.GetSaleVaultAccounts(mint)
	if err != nil {
		return nil, newAddressDerivationError(err, "sale vault for mint %s", key)
	}

	// A concurrent derivation may have won the insert with an identical value
	r.saleVaults.Insert(key, accounts, 1)
	return accounts, nil
}

func (r *custodyResolver) position(buyer, mint *common.Account) (*common.PositionAccounts, error) {
	key := buyer.PublicKey().ToBase58() + ":" + mint.PublicKey().ToBase58()

	if cached, ok := r.positions.Retrieve(key); ok {
		return cached, nil
	}

	accounts, err := common.GetPositionAccounts(buyer, mint)
	if err != nil {
		return nil, newAddressDerivationError(err, "position for buyer %s", buyer.PublicKey().ToBase58())
	}

	r.positions.Insert(key, accounts, 1)
	return accounts, nil
}
