package trading

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/quote"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service implements the trading domain: registration, authentication,
// quotes, buy/sell execution against the ledger, and the derived views.
type Service struct {
	db           *gorm.DB
	quotes       quote.LookupClient
	logger       *zap.Logger
	startingCash decimal.Decimal
}

// NewService creates a new trading service.
func NewService(db *gorm.DB, quotes quote.LookupClient, logger *zap.Logger, startingCash decimal.Decimal) *Service {
	return &Service{
		db:           db,
		quotes:       quotes,
		logger:       logger,
		startingCash: startingCash,
	}
}

// Holding is a derived per-symbol position with its current valuation.
type Holding struct {
	Symbol       string
	Shares       int64
	CurrentPrice decimal.Decimal
	Value        decimal.Decimal // Shares x CurrentPrice
}

// PortfolioView is everything the portfolio page shows.
type PortfolioView struct {
	Username   string
	Cash       decimal.Decimal
	Holdings   []Holding
	Unrealized decimal.Decimal // sum of holding values
	Total      decimal.Decimal // Cash + Unrealized
}

// Signed per-symbol share sums over the append-only ledger. Holdings are
// never stored; this query is the definition of "how many shares you own".
const holdingsBySymbol = `
	SELECT symbol,
	       SUM(CASE WHEN transaction_type = 'buy' THEN shares ELSE -shares END) AS shares
	FROM purchases
	WHERE user_id = ? AND deleted_at IS NULL
	GROUP BY symbol`

const holdingForSymbol = `
	SELECT COALESCE(SUM(CASE WHEN transaction_type = 'buy' THEN shares ELSE -shares END), 0)
	FROM purchases
	WHERE user_id = ? AND symbol = ? AND deleted_at IS NULL`

// Register creates a new user with the configured starting cash.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) error {
	if username == "" {
		return ErrMissingUsername
	}
	if password == "" {
		return ErrMissingPassword
	}
	if confirmation == "" {
		return ErrMissingConfirmation
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: username,
		Hash:     string(hash),
		Cash:     s.startingCash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// The unique index catches the race the pre-check cannot.
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Registered new user", zap.String("username", username))
	return nil
}

// Authenticate verifies credentials and returns the user. Every failure
// collapses into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// User loads a user row by id.
func (s *Service) User(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &user, nil
}

// Quote looks up the current market quote for a symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (*quote.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrSymbolNotFound) {
			return nil, ErrInvalidSymbol
		}
		return nil, err
	}
	return q, nil
}

// Buy executes a purchase at the current market price. The ledger insert and
// the cash decrement happen in one database transaction; a rejected buy
// leaves no trace.
func (s *Service) Buy(ctx context.Context, userID uint, symbol, sharesRaw string) error {
	shares, err := parseShares(sharesRaw)
	if err != nil {
		return err
	}

	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return err
	}
	if shares <= 0 {
		return ErrInvalidShares
	}

	cost := q.Price.Mul(decimal.NewFromInt(shares))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		if cost.GreaterThan(user.Cash) {
			return ErrInsufficientFunds
		}

		entry := models.Purchase{
			UserID:          userID,
			Symbol:          q.Symbol,
			Price:           q.Price,
			Shares:          shares,
			TransactionType: models.TransactionBuy,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		if err := tx.Model(&user).Update("cash", user.Cash.Sub(cost)).Error; err != nil {
			return fmt.Errorf("failed to debit cash: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Executed buy",
		zap.Uint("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("shares", shares),
		zap.String("price", q.Price.String()),
	)
	return nil
}

// Sell executes a sale at the current market price. The requested count must
// be covered by the derived holding, checked inside the same transaction
// that appends the ledger entry and credits the cash.
func (s *Service) Sell(ctx context.Context, userID uint, symbol, sharesRaw string) error {
	shares, err := parseShares(sharesRaw)
	if err != nil {
		return err
	}

	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return err
	}
	if shares <= 0 {
		return ErrInvalidShares
	}

	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held int64
		if err := tx.Raw(holdingForSymbol, userID, q.Symbol).Scan(&held).Error; err != nil {
			return fmt.Errorf("failed to compute holding: %w", err)
		}

		if held <= 0 {
			return ErrNoHoldings
		}
		if shares > held {
			return &InsufficientSharesError{Available: held}
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		entry := models.Purchase{
			UserID:          userID,
			Symbol:          q.Symbol,
			Price:           q.Price,
			Shares:          shares,
			TransactionType: models.TransactionSell,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}

		if err := tx.Model(&user).Update("cash", user.Cash.Add(proceeds)).Error; err != nil {
			return fmt.Errorf("failed to credit cash: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Executed sell",
		zap.Uint("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("shares", shares),
		zap.String("price", q.Price.String()),
	)
	return nil
}

// Portfolio assembles the portfolio page: cash, every positive holding
// valued at its current price, and the totals.
func (s *Service) Portfolio(ctx context.Context, userID uint) (*PortfolioView, error) {
	user, err := s.User(ctx, userID)
	if err != nil {
		return nil, err
	}

	type row struct {
		Symbol string
		Shares int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Raw(holdingsBySymbol, userID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute holdings: %w", err)
	}

	view := &PortfolioView{
		Username:   user.Username,
		Cash:       user.Cash,
		Unrealized: decimal.Zero,
	}

	for _, r := range rows {
		if r.Shares <= 0 {
			// Fully sold out; a zero row is noise on the page.
			continue
		}
		q, err := s.quotes.Lookup(ctx, r.Symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to price holding %s: %w", r.Symbol, err)
		}
		value := q.Price.Mul(decimal.NewFromInt(r.Shares))
		view.Holdings = append(view.Holdings, Holding{
			Symbol:       r.Symbol,
			Shares:       r.Shares,
			CurrentPrice: q.Price,
			Value:        value,
		})
		view.Unrealized = view.Unrealized.Add(value)
	}

	view.Total = view.Cash.Add(view.Unrealized)
	return view, nil
}

// History returns the user's full ledger in insertion order.
func (s *Service) History(ctx context.Context, userID uint) ([]models.Purchase, error) {
	var entries []models.Purchase
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// OwnedSymbols lists the symbols with a strictly positive holding, for the
// sell form's selection list.
func (s *Service) OwnedSymbols(ctx context.Context, userID uint) ([]string, error) {
	type row struct {
		Symbol string
		Shares int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Raw(holdingsBySymbol, userID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute holdings: %w", err)
	}

	var symbols []string
	for _, r := range rows {
		if r.Shares > 0 {
			symbols = append(symbols, r.Symbol)
		}
	}
	return symbols, nil
}

// normalizeSymbol uppercases and trims free-text symbol input.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// parseShares parses the shares form field. A non-integer is reported
// separately from a non-positive integer; the buy and sell flows surface
// different messages for the two.
func parseShares(raw string) (int64, error) {
	shares, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrSharesNotInteger
	}
	return shares, nil
}
