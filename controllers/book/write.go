package bookcontroller

import (
	"net/http"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookInput is shared by create (all required fields set) and update (partial).
type BookInput struct {
	Title       *string          `json:"title"`
	Author      *string          `json:"author"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

func (in BookInput) apply(book *models.Book) {
	if in.Title != nil {
		book.Title = *in.Title
	}
	if in.Author != nil {
		book.Author = *in.Author
	}
	if in.Description != nil {
		book.Description = *in.Description
	}
	if in.Image != nil {
		book.Image = *in.Image
	}
	if in.Price != nil {
		book.Price = *in.Price
		book.NormalizePrice()
	}
	if in.Stock != nil {
		book.Stock = *in.Stock
	}
}

// POST /books
func CreateBook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input BookInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if input.Price == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price is required"})
			return
		}

		var book models.Book
		input.apply(&book)
		if err := book.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := db.Create(&book).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create book"})
			return
		}
		c.JSON(http.StatusCreated, book)
	}
}

// PUT /books/:id
func UpdateBook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, ok := findBook(c, db)
		if !ok {
			return
		}
		var input BookInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		input.apply(&book)
		if err := book.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := db.Save(&book).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book"})
			return
		}
		c.JSON(http.StatusOK, book)
	}
}

// PATCH /books/:id/stock
func UpdateStock(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookID(c)
		if !ok {
			return
		}
		var input struct {
			Stock *int `json:"stock" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if *input.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
			return
		}

		res := db.Model(&models.Book{}).Where("id = ?", id).Update("stock", *input.Stock)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Books added to the stock successfully!", "stock": *input.Stock})
	}
}

// DELETE /books/:id
func DeleteBook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookID(c)
		if !ok {
			return
		}
		res := db.Delete(&models.Book{}, id)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
	}
}
