package service

import (
	"errors"
	"testing"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
)

func TestWalletCreditAndDebitInvariant(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, walletService, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	if _, err := walletService.Credit(WalletCreditInput{
		CustomerUID:  "cliente-1",
		RestaurantID: restaurant.ID,
		Amount:       models.NewMoneyFromString("30.00"),
		EntryType:    constants.CashbackEntryTypeReferralBonus,
		Reference:    "test:credit:1",
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, err := walletService.Debit(WalletDebitInput{
		CustomerUID:  "cliente-1",
		RestaurantID: restaurant.ID,
		Amount:       models.NewMoneyFromString("12.50"),
		EntryType:    constants.CashbackEntryTypeOrderDiscount,
		Reference:    "test:debit:1",
	}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	wallet, err := walletService.GetWallet("cliente-1")
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if !wallet.Balance.Decimal.Equal(decimal.RequireFromString("17.50")) {
		t.Fatalf("balance want 17.50 got %s", wallet.Balance)
	}
	expected := wallet.TotalEarned.Decimal.Sub(wallet.TotalUsed.Decimal)
	if !wallet.Balance.Decimal.Equal(expected) {
		t.Fatalf("invariant broken: balance=%s earned-used=%s", wallet.Balance, expected)
	}
}

func TestWalletRestaurantSubBalances(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, walletService, _, _ := buildTestServices(t, db)
	restA := createTestRestaurant(t, db)
	restB := createTestRestaurant(t, db)

	if _, err := walletService.Credit(WalletCreditInput{
		CustomerUID:  "cliente-2",
		RestaurantID: restA.ID,
		Amount:       models.NewMoneyFromString("20.00"),
		Reference:    "test:credit:a",
	}); err != nil {
		t.Fatalf("credit A failed: %v", err)
	}
	if _, err := walletService.Credit(WalletCreditInput{
		CustomerUID:  "cliente-2",
		RestaurantID: restB.ID,
		Amount:       models.NewMoneyFromString("5.00"),
		Reference:    "test:credit:b",
	}); err != nil {
		t.Fatalf("credit B failed: %v", err)
	}

	balanceA, err := walletService.RestaurantBalance("cliente-2", restA.ID)
	if err != nil {
		t.Fatalf("balance A failed: %v", err)
	}
	if !balanceA.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("balance A want 20.00 got %s", balanceA)
	}

	// 子余额不足时拒绝，即便总余额足够
	_, err = walletService.Debit(WalletDebitInput{
		CustomerUID:  "cliente-2",
		RestaurantID: restB.ID,
		Amount:       models.NewMoneyFromString("10.00"),
		Reference:    "test:debit:over",
	})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("cross-restaurant debit want ErrWalletInsufficientBalance got %v", err)
	}
}

func TestWalletIdempotentReference(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, walletService, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	input := WalletCreditInput{
		CustomerUID:  "cliente-3",
		RestaurantID: restaurant.ID,
		Amount:       models.NewMoneyFromString("8.00"),
		Reference:    "order:77:referrer_bonus",
	}
	first, err := walletService.Credit(input)
	if err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	second, err := walletService.Credit(input)
	if err != nil {
		t.Fatalf("second credit failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same entry on duplicate reference, got %d and %d", first.ID, second.ID)
	}

	wallet, err := walletService.GetWallet("cliente-3")
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if !wallet.Balance.Decimal.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("balance want 8.00 got %s", wallet.Balance)
	}
}

func TestWalletDebitValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, walletService, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	_, err := walletService.Debit(WalletDebitInput{
		CustomerUID:  "cliente-sem-carteira",
		RestaurantID: restaurant.ID,
		Amount:       models.NewMoneyFromString("1.00"),
		Reference:    "test:debit:nowallet",
	})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("missing wallet want ErrWalletInsufficientBalance got %v", err)
	}

	_, err = walletService.Credit(WalletCreditInput{
		CustomerUID:  "cliente-4",
		RestaurantID: restaurant.ID,
		Amount:       models.NewMoneyFromString("-1.00"),
		Reference:    "test:credit:neg",
	})
	if !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("negative credit want ErrWalletInvalidAmount got %v", err)
	}
}

func TestWalletListEntries(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, walletService, _, _ := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	for i, ref := range []string{"test:e:1", "test:e:2", "test:e:3"} {
		if _, err := walletService.Credit(WalletCreditInput{
			CustomerUID:  "cliente-5",
			RestaurantID: restaurant.ID,
			Amount:       models.NewMoneyFromString("1.00"),
			Reference:    ref,
		}); err != nil {
			t.Fatalf("credit %d failed: %v", i, err)
		}
	}

	entries, total, err := walletService.ListEntries("cliente-5", repository.CashbackEntryListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("total want 3 got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("page size want 2 got %d", len(entries))
	}
}
