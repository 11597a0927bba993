package bookcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func bookID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return 0, false
	}
	return uint(id), true
}

func findBook(c *gin.Context, db *gorm.DB) (models.Book, bool) {
	var book models.Book
	id, ok := bookID(c)
	if !ok {
		return book, false
	}
	if err := db.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve book"})
		}
		return book, false
	}
	return book, true
}

// GET /books/:id
func GetBookByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, ok := findBook(c, db)
		if !ok {
			return
		}
		userID, _ := middleware.UserID(c)
		resp, err := decorate(db, []models.Book{book}, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
			return
		}
		c.JSON(http.StatusOK, resp[0])
	}
}
