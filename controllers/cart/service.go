package cartControllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ashkan-django/bookstore-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidQuantity = models.ErrInvalidQuantity
	ErrBookNotFound    = errors.New("Book not found")
	ErrCartNotFound    = errors.New("Cart not found")
	ErrItemNotFound    = errors.New("Cart item not found")
	ErrCartExists      = errors.New("User already has a cart.")
)

// ParseQuantity accepts only positive integers.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q <= 0 {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

func findBook(tx *gorm.DB, bookID uint) (models.Book, error) {
	var book models.Book
	err := tx.First(&book, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book, ErrBookNotFound
	}
	return book, err
}

// lockCart returns the user's cart under a row lock, creating it when create is set.
func lockCart(tx *gorm.DB, userID uint, create bool) (models.Cart, error) {
	if create {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&models.Cart{UserID: userID}).Error; err != nil {
			return models.Cart{}, err
		}
	}
	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart, ErrCartNotFound
	}
	return cart, err
}

// CreateCart fails with ErrCartExists when the user already has one.
func CreateCart(db *gorm.DB, userID uint) (models.Cart, error) {
	cart := models.Cart{UserID: userID}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart)
	if res.Error != nil {
		return cart, res.Error
	}
	if res.RowsAffected == 0 {
		return cart, ErrCartExists
	}
	return cart, nil
}

// AddItem sets the (cart, book) quantity to existing+quantity when stock allows.
// The cart is created on first use.
func AddItem(db *gorm.DB, userID, bookID uint, quantity int) (models.CartItem, error) {
	var item models.CartItem
	if quantity <= 0 {
		return item, ErrInvalidQuantity
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		book, err := findBook(tx, bookID)
		if err != nil {
			return err
		}
		cart, err := lockCart(tx, userID, true)
		if err != nil {
			return err
		}

		err = tx.Where("cart_id = ? AND book_id = ?", cart.ID, bookID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{CartID: cart.ID, BookID: bookID}
		case err != nil:
			return err
		}

		if err := book.CheckAdd(item.Quantity, quantity); err != nil {
			return err
		}
		item.Quantity += quantity
		item.Book = book
		return tx.Omit("Book").Save(&item).Error
	})
	return item, err
}

// DeleteItem removes an item only when it belongs to the user's cart.
func DeleteItem(db *gorm.DB, userID, itemID uint) error {
	res := db.Where("id = ? AND cart_id IN (?)", itemID,
		db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID),
	).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ClearCart deletes every item in the user's cart.
func ClearCart(db *gorm.DB, userID uint) error {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartNotFound
		}
		return err
	}
	return db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}

// LoadCart returns the user's cart with items and books.
func LoadCart(db *gorm.DB, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.Book").
		Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart, ErrCartNotFound
	}
	return cart, err
}

// CountItems sums quantities in the user's cart; no cart counts as zero.
func CountItems(db *gorm.DB, userID uint) (int, error) {
	var total int64
	err := db.Model(&models.CartItem{}).
		Select("COALESCE(SUM(cart_items.quantity), 0)").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Scan(&total).Error
	return int(total), err
}

// MergeGuestCart folds a guest cart into the user's cart, summing quantities for
// books present in both. An empty guest cart is a no-op. Books that no longer
// exist are skipped.
func MergeGuestCart(db *gorm.DB, userID uint, guest models.GuestCart) (bool, error) {
	entries := guest.Entries()
	if len(entries) == 0 {
		return false, nil
	}

	merged := false
	err := db.Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID, true)
		if err != nil {
			return err
		}
		for bookID, quantity := range entries {
			if _, err := findBook(tx, bookID); err != nil {
				if errors.Is(err, ErrBookNotFound) {
					continue
				}
				return err
			}

			var item models.CartItem
			err := tx.Where("cart_id = ? AND book_id = ?", cart.ID, bookID).First(&item).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				item = models.CartItem{CartID: cart.ID, BookID: bookID, Quantity: quantity}
			case err != nil:
				return err
			default:
				item.Quantity += quantity
			}
			if err := tx.Save(&item).Error; err != nil {
				return fmt.Errorf("merge book %d: %w", bookID, err)
			}
			merged = true
		}
		return nil
	})
	return merged, err
}

// AddGuestItem applies the add-item rule to a session cart and returns the new quantity.
func AddGuestItem(db *gorm.DB, guest models.GuestCart, bookID uint, quantity int) (models.Book, int, error) {
	if quantity <= 0 {
		return models.Book{}, 0, ErrInvalidQuantity
	}
	book, err := findBook(db, bookID)
	if err != nil {
		return book, 0, err
	}
	current := guest.Quantity(bookID)
	if err := book.CheckAdd(current, quantity); err != nil {
		return book, 0, err
	}
	total := current + quantity
	guest.Set(bookID, total)
	return book, total, nil
}
