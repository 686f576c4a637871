package orderControllers

import (
	"errors"
	"net/http"

	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AddressRequest struct {
	FirstName  string `form:"first_name" json:"first_name" binding:"required"`
	LastName   string `form:"last_name" json:"last_name" binding:"required"`
	Province   string `form:"province" json:"province" binding:"required"`
	City       string `form:"city" json:"city" binding:"required"`
	Address    string `form:"address" json:"address" binding:"required"`
	PostalCode string `form:"postal_code" json:"postal_code" binding:"required"`
	Phone      string `form:"phone" json:"phone"`
	Plaque     string `form:"plaque" json:"plaque"`
	Unit       *uint  `form:"unit" json:"unit"`
}

func ListAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		var addresses []models.Address
		if err := db.Where("user_id = ?", userID).Order("id").Find(&addresses).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch addresses"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "addresses": addresses})
	}
}

func CreateAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		var req AddressRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input: " + err.Error()})
			return
		}
		address := models.Address{
			UserID:     userID,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Province:   req.Province,
			City:       req.City,
			Address:    req.Address,
			PostalCode: req.PostalCode,
			Phone:      req.Phone,
			Plaque:     req.Plaque,
			Unit:       req.Unit,
		}
		if err := db.Create(&address).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create address"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "success", "address": address})
	}
}

func UpdateAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		addressID, okID := parseID(c.Param("addressID"))
		if !okID {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid address"})
			return
		}
		var req AddressRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input: " + err.Error()})
			return
		}
		var address models.Address
		if err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "address not found"})
			return
		}
		address.FirstName = req.FirstName
		address.LastName = req.LastName
		address.Province = req.Province
		address.City = req.City
		address.Address = req.Address
		address.PostalCode = req.PostalCode
		address.Phone = req.Phone
		address.Plaque = req.Plaque
		address.Unit = req.Unit
		if err := db.Save(&address).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to update address"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "address": address})
	}
}

// DeleteAddress refuses to remove an address any order still references:
// order rows keep a RESTRICT foreign key to it.
func DeleteAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		addressID, okID := parseID(c.Param("addressID"))
		if !okID {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid address"})
			return
		}
		var address models.Address
		if err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "address not found"})
			return
		}

		var inUse int64
		if err := db.Model(&models.Order{}).Where("address_id = ?", address.ID).Count(&inUse).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to delete address"})
			return
		}
		if inUse > 0 {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "address is referenced by an order and cannot be deleted"})
			return
		}

		if err := db.Delete(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "address is referenced by an order and cannot be deleted"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to delete address"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "address deleted"})
	}
}
