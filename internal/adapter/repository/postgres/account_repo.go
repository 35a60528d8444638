package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const accountColumns = `a.id, a.owner_id, a.name, a.type, a.initial_balance,
	a.closing_day, a.due_day, a.credit_limit, a.brand, a.created_at, a.updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepositoryWithDB(pool)
}

func newAccountRepositoryWithDB(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, owner_id, name, type, initial_balance,
			closing_day, due_day, credit_limit, brand, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var (
		closingDay, dueDay pgtype.Int2
		creditLimit        pgtype.Numeric
		brand              pgtype.Text
	)
	if card := account.CreditCard; card != nil {
		closingDay = pgtype.Int2{Int16: int16(card.ClosingDay), Valid: true}
		dueDay = pgtype.Int2{Int16: int16(card.DueDay), Valid: true}
		creditLimit = decimalToNumeric(card.CreditLimit)
		brand = optionalText(card.Brand)
	}

	_, err := conn(r.db, tx).Exec(ctx, query,
		account.ID,
		account.OwnerID,
		account.Name,
		string(account.Type),
		decimalToNumeric(account.InitialBalance),
		closingDay,
		dueDay,
		creditLimit,
		brand,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return mapError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1`

	account, err := scanAccount(conn(r.db, tx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}

	return account, err
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1 FOR UPDATE`

	account, err := scanAccount(conn(r.db, tx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}

	return account, err
}

// GetForActor retrieves an account if the actor owns it or holds a share of
// at least the given level.
func (r *AccountRepository) GetForActor(
	ctx context.Context,
	tx usecase.Transaction,
	actorID, id string,
	level domain.AccessLevel,
) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `, s.access_level
		FROM accounts a
		LEFT JOIN account_shares s ON s.account_id = a.id AND s.user_id = $2
		WHERE a.id = $1
	`

	var granted pgtype.Int2
	account, err := scanAccount(conn(r.db, tx).QueryRow(ctx, query, id, actorID), &granted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	if account.OwnerID != actorID && (!granted.Valid || domain.AccessLevel(granted.Int16) < level) {
		return nil, domain.ErrAccessDenied
	}

	return account, nil
}

// UpdateCreditCard replaces the card settings of an account.
func (r *AccountRepository) UpdateCreditCard(
	ctx context.Context,
	tx usecase.Transaction,
	id string,
	card domain.CreditCardInfo,
	updatedAt time.Time,
) error {
	query := `
		UPDATE accounts
		SET closing_day = $2, due_day = $3, credit_limit = $4, brand = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		id,
		int16(card.ClosingDay),
		int16(card.DueDay),
		decimalToNumeric(card.CreditLimit),
		optionalText(card.Brand),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ListReadable lists accounts the actor owns or has been shared.
func (r *AccountRepository) ListReadable(ctx context.Context, tx usecase.Transaction, actorID string) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		WHERE a.owner_id = $1
		   OR EXISTS (SELECT 1 FROM account_shares s WHERE s.account_id = a.id AND s.user_id = $1)
		ORDER BY a.created_at, a.id
	`

	return r.list(ctx, tx, query, actorID)
}

// ListByOwner lists accounts owned by ownerID.
func (r *AccountRepository) ListByOwner(ctx context.Context, tx usecase.Transaction, ownerID string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.owner_id = $1 ORDER BY a.created_at, a.id`

	return r.list(ctx, tx, query, ownerID)
}

func (r *AccountRepository) list(ctx context.Context, tx usecase.Transaction, query string, args ...any) ([]*domain.Account, error) {
	rows, err := conn(r.db, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// Share grants userID access to an account, replacing any earlier grant.
func (r *AccountRepository) Share(
	ctx context.Context,
	tx usecase.Transaction,
	accountID, userID string,
	level domain.AccessLevel,
) error {
	query := `
		INSERT INTO account_shares (account_id, user_id, access_level)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, user_id) DO UPDATE SET access_level = EXCLUDED.access_level
	`

	_, err := conn(r.db, tx).Exec(ctx, query, accountID, userID, int16(level))

	return mapError(err)
}

func scanAccount(row pgx.Row, extra ...any) (*domain.Account, error) {
	var (
		account            domain.Account
		accountType        string
		initialBalance     pgtype.Numeric
		closingDay, dueDay pgtype.Int2
		creditLimit        pgtype.Numeric
		brand              pgtype.Text
		createdAt          pgtype.Timestamptz
		updatedAt          pgtype.Timestamptz
	)

	dest := []any{
		&account.ID,
		&account.OwnerID,
		&account.Name,
		&accountType,
		&initialBalance,
		&closingDay,
		&dueDay,
		&creditLimit,
		&brand,
		&createdAt,
		&updatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)
	account.InitialBalance = numericToDecimal(initialBalance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	if account.IsCredit() && closingDay.Valid {
		account.CreditCard = &domain.CreditCardInfo{
			ClosingDay:  int(closingDay.Int16),
			DueDay:      int(dueDay.Int16),
			CreditLimit: numericToDecimal(creditLimit),
			Brand:       brand.String,
		}
	}

	return &account, nil
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: pool}
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Category, error) {
	query := `SELECT id, name, owner_id FROM categories WHERE id = $1`

	var (
		category domain.Category
		ownerID  pgtype.Text
	)
	err := conn(r.db, tx).QueryRow(ctx, query, id).Scan(&category.ID, &category.Name, &ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	category.OwnerID = textToPtr(ownerID)

	return &category, nil
}
