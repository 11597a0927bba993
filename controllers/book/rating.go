package bookcontroller

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/recommend"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertRating creates or replaces the user's rating for a book.
func UpsertRating(db *gorm.DB, userID, bookID uint, rate float64, review string) (models.Rating, error) {
	if err := models.ValidateRate(rate); err != nil {
		return models.Rating{}, err
	}
	rating := models.Rating{UserID: userID, BookID: bookID, Rate: rate, Review: review}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "review", "updated_at"}),
	}).Create(&rating).Error
	if err != nil {
		return rating, err
	}
	err = db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&rating).Error
	return rating, err
}

func AddFavorite(db *gorm.DB, userID, bookID uint) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, BookID: bookID}).Error
}

func RemoveFavorite(db *gorm.DB, userID, bookID uint) (bool, error) {
	res := db.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&models.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// ToggleFavorite flips the favorite state and reports the new one.
func ToggleFavorite(db *gorm.DB, userID, bookID uint) (bool, error) {
	favorite := false
	err := db.Transaction(func(tx *gorm.DB) error {
		removed, err := RemoveFavorite(tx, userID, bookID)
		if err != nil || removed {
			return err
		}
		favorite = true
		return AddFavorite(tx, userID, bookID)
	})
	return favorite, err
}

// POST /books/:id/rate
func RateBook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, ok := findBook(c, db)
		if !ok {
			return
		}
		var input struct {
			Rate   *float64 `json:"rate" binding:"required"`
			Review string   `json:"review"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		userID, _ := middleware.UserID(c)
		rating, err := UpsertRating(db, userID, book.ID, *input.Rate, input.Review)
		if err != nil {
			if errors.Is(err, models.ErrRateOutOfRange) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save rating"})
			return
		}
		c.JSON(http.StatusOK, rating)
	}
}

// POST /books/:id/favorite
func FavoriteBook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, ok := findBook(c, db)
		if !ok {
			return
		}
		userID, _ := middleware.UserID(c)
		favorite, err := ToggleFavorite(db, userID, book.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update favorite"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"book_id": book.ID, "is_favorite": favorite})
	}
}

// GET /favorites
func GetFavorites(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		var favorites []models.Favorite
		if err := db.Preload("Book").Where("user_id = ?", userID).Order("created_at DESC").Find(&favorites).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
			return
		}
		books := make([]models.Book, 0, len(favorites))
		for _, f := range favorites {
			books = append(books, f.Book)
		}
		resp, err := decorate(db, books, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// RecommendedBooks resolves recommender ids to books, keeping the recommender's order.
// Any failure yields no recommendations.
func RecommendedBooks(ctx context.Context, db *gorm.DB, rec recommend.Recommender, userID uint) []models.Book {
	ids, err := rec.Recommend(ctx, userID, recommend.DefaultCount)
	if err != nil {
		log.Printf("recommendations for user %d: %v", userID, err)
		return []models.Book{}
	}
	if len(ids) == 0 {
		return []models.Book{}
	}

	var books []models.Book
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		log.Printf("recommendations for user %d: %v", userID, err)
		return []models.Book{}
	}
	byID := make(map[uint]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	ordered := make([]models.Book, 0, len(books))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// GET /recommendations
func GetRecommendations(db *gorm.DB, rec recommend.Recommender) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		books := RecommendedBooks(c.Request.Context(), db, rec, userID)
		resp, err := decorate(db, books, userID)
		if err != nil {
			resp = []BookResponse{}
		}
		c.JSON(http.StatusOK, resp)
	}
}
