package bookcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

var excelHeaders = []string{"ID", "Title", "Author", "Description", "Price", "Stock", "Image", "CreatedAt", "UpdatedAt"}

// BuildBooksWorkbook renders the catalog as a single-sheet workbook.
func BuildBooksWorkbook(books []models.Book) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Books")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range excelHeaders {
		headerRow.AddCell().SetString(h)
	}
	for _, b := range books {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(b.ID))
		row.AddCell().SetString(b.Title)
		row.AddCell().SetString(b.Author)
		row.AddCell().SetString(b.Description)
		row.AddCell().SetString(b.Price.StringFixed(2))
		row.AddCell().SetInt(b.Stock)
		row.AddCell().SetString(b.Image)
		row.AddCell().SetString(b.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(b.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

// GET /admin/books/export
func ExportBooksToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var books []models.Book
		if err := db.Order("id").Find(&books).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
			return
		}

		file, err := BuildBooksWorkbook(books)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=books.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// ImportBooks upserts rows from the first sheet. Rows with an existing ID update that book.
func ImportBooks(db *gorm.DB, xlFile *xlsx.File) ImportResult {
	var result ImportResult
	sheet := xlFile.Sheets[0]

	for i := 1; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		if row == nil || len(row.Cells) < 6 {
			result.Skipped++
			continue
		}
		get := func(index int) string {
			if index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}

		price, err1 := decimal.NewFromString(get(4))
		stock, err2 := strconv.Atoi(get(5))
		book := models.Book{
			Title:       get(1),
			Author:      get(2),
			Description: get(3),
			Price:       price,
			Stock:       stock,
			Image:       get(6),
		}
		book.NormalizePrice()
		if err1 != nil || err2 != nil || book.Validate() != nil {
			result.Skipped++
			continue
		}

		if id, err := strconv.Atoi(get(0)); err == nil && id > 0 {
			var existing models.Book
			if err := db.First(&existing, id).Error; err == nil {
				existing.Title = book.Title
				existing.Author = book.Author
				existing.Description = book.Description
				existing.Price = book.Price
				existing.Stock = book.Stock
				existing.Image = book.Image
				if err := db.Save(&existing).Error; err == nil {
					result.Updated++
				} else {
					result.Skipped++
				}
				continue
			}
		}

		if err := db.Create(&book).Error; err == nil {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return result
}

// POST /admin/books/import
func ImportBooksFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		result := ImportBooks(db, xlFile)
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": result.Created,
			"updated_count": result.Updated,
			"skipped_count": result.Skipped,
		})
	}
}
