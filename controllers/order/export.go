package orderControllers

import (
	"net/http"

	"github.com/arvand-shop/storefront-api/models"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// ExportOrdersToExcel streams the full order book as an xlsx download.
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("User").Preload("Items").Preload("Coupon").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create sheet"})
			return
		}

		headers := []string{
			"ID", "TrackingNumber", "UserPhone", "Status", "ItemCount",
			"BaseTotal", "VariantDiscounts", "TotalPrice", "CouponCode",
			"FinalPrice", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := sheet.AddRow()

			row.AddCell().SetValue(o.ID)
			tracking := ""
			if o.TrackingNumber != nil {
				tracking = *o.TrackingNumber
			}
			row.AddCell().SetValue(tracking)
			row.AddCell().SetValue(o.User.Phone)
			row.AddCell().SetValue(o.Status.String())

			count := 0
			for _, item := range o.Items {
				count += item.Quantity
			}
			row.AddCell().SetValue(count)

			row.AddCell().SetValue(o.ItemsBaseTotal().InexactFloat64())
			row.AddCell().SetValue(o.ItemsDiscount().InexactFloat64())
			row.AddCell().SetValue(o.TotalPrice.InexactFloat64())
			code := ""
			if o.Coupon != nil {
				code = o.Coupon.Code
			}
			row.AddCell().SetValue(code)
			row.AddCell().SetValue(o.FinalPrice().InexactFloat64())
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to write file"})
			return
		}
	}
}
