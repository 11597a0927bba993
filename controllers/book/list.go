package bookcontroller

import (
	"math"
	"net/http"
	"strings"

	cartControllers "github.com/ashkan-django/bookstore-api/controllers/cart"
	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookResponse adds rating and favorite details for the caller.
type BookResponse struct {
	models.Book
	AverageRate float64 `json:"average_rate"`
	RateNumbers int64   `json:"rate_numbers"`
	IsFavorite  bool    `json:"is_favorite"`
	LowStock    bool    `json:"low_stock"`
}

type rateStat struct {
	BookID  uint
	Average float64
	Total   int64
}

var sortColumns = map[string]string{
	"title":      "title",
	"author":     "author",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
}

// decorate attaches rating aggregates and the user's favorites to books.
func decorate(db *gorm.DB, books []models.Book, userID uint) ([]BookResponse, error) {
	out := make([]BookResponse, 0, len(books))
	if len(books) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}

	var stats []rateStat
	if err := db.Model(&models.Rating{}).
		Select("book_id, AVG(rate) AS average, COUNT(*) AS total").
		Where("book_id IN ?", ids).
		Group("book_id").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	byBook := make(map[uint]rateStat, len(stats))
	for _, s := range stats {
		byBook[s.BookID] = s
	}

	favorites := map[uint]bool{}
	if userID != 0 {
		var favIDs []uint
		if err := db.Model(&models.Favorite{}).
			Where("user_id = ? AND book_id IN ?", userID, ids).
			Pluck("book_id", &favIDs).Error; err != nil {
			return nil, err
		}
		for _, id := range favIDs {
			favorites[id] = true
		}
	}

	for _, b := range books {
		s := byBook[b.ID]
		out = append(out, BookResponse{
			Book:        b,
			AverageRate: math.Round(s.Average*100) / 100,
			RateNumbers: s.Total,
			IsFavorite:  favorites[b.ID],
			LowStock:    b.StockLowerThan10(),
		})
	}
	return out, nil
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GET /books
func GetBooks(db *gorm.DB, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := strings.TrimSpace(c.Query("search"))
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		sortColumn, ok := sortColumns[c.DefaultQuery("sort_by", "created_at")]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by"})
			return
		}
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		query := db.Model(&models.Book{})
		if search != "" {
			like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
			query = query.Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(author) LIKE ? ESCAPE '\\'", like, like)
		}
		if minPriceStr != "" {
			mp, err := decimal.NewFromString(minPriceStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
				return
			}
			query = query.Where("price >= ?", mp)
		}
		if maxPriceStr != "" {
			mp, err := decimal.NewFromString(maxPriceStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
				return
			}
			query = query.Where("price <= ?", mp)
		}

		var books []models.Book
		if err := query.Order(sortColumn + " " + sortOrder).Order("id").Find(&books).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
			return
		}

		userID, _ := middleware.UserID(c)
		resp, err := decorate(db, books, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
			return
		}

		// Browsing the catalog re-arms quick purchase.
		cartControllers.ResetPurchaseGuard(c, store)

		c.JSON(http.StatusOK, resp)
	}
}
