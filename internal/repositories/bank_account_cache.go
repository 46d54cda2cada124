package repositories

import (
	"context"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

const bankAccountsCacheKey = "bank_accounts"

// BankAccountStore is the storage the cache decorates
type BankAccountStore interface {
	List(ctx context.Context) ([]models.BankAccount, error)
	Create(ctx context.Context, a *models.BankAccount) error
}

// JSONCache is satisfied by cache.Store
type JSONCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// cachedBankAccountRepository is a read-through cache in front of a BankAccountStore
// Cache failures are logged and the store is used directly
type cachedBankAccountRepository struct {
	next   BankAccountStore
	cache  JSONCache
	logger *zap.Logger
}

// NewCachedBankAccountRepository wraps next with a read-through cache
func NewCachedBankAccountRepository(next BankAccountStore, cache JSONCache, logger *zap.Logger) *cachedBankAccountRepository {
	return &cachedBankAccountRepository{
		next:   next,
		cache:  cache,
		logger: logger,
	}
}

// List returns the cached accounts, loading and caching them on a miss
func (r *cachedBankAccountRepository) List(ctx context.Context) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	found, err := r.cache.Get(ctx, bankAccountsCacheKey, &accounts)
	if err != nil {
		r.logger.Warn("bank account cache read failed", zap.Error(err))
	}
	if found {
		return accounts, nil
	}

	accounts, err = r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, bankAccountsCacheKey, accounts); err != nil {
		r.logger.Warn("bank account cache write failed", zap.Error(err))
	}
	return accounts, nil
}

// Create stores the account and invalidates the cached list
func (r *cachedBankAccountRepository) Create(ctx context.Context, a *models.BankAccount) error {
	if err := r.next.Create(ctx, a); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, bankAccountsCacheKey); err != nil {
		r.logger.Warn("bank account cache invalidation failed", zap.Error(err))
	}
	return nil
}
