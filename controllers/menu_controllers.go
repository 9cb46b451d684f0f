package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// MenuController is a thin CRUD wrapper around the catalog. Orders
// snapshot prices at creation, so edits here never rewrite history.
type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetMenu returns categories with their active items (guest view).
func (mc *MenuController) GetMenu(c *gin.Context) {
	var categories []models.MenuCategory
	err := mc.DB.Preload("Items", "is_active = ?", true).
		Order("sort_order asc").
		Find(&categories).Error
	if err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", categories)
}

// GetMenuAll returns everything including inactive items (staff view).
func (mc *MenuController) GetMenuAll(c *gin.Context) {
	var categories []models.MenuCategory
	err := mc.DB.Preload("Items").Order("sort_order asc").Find(&categories).Error
	if err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Full menu", categories)
}

func (mc *MenuController) CreateCategory(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := models.MenuCategory{Name: req.Name, SortOrder: req.SortOrder}
	if err := mc.DB.Create(&category).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

func (mc *MenuController) CreateItem(c *gin.Context) {
	var req struct {
		CategoryID  uint   `json:"category_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		PriceCents  int64  `json:"price_cents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.MenuCategory
	if err := mc.DB.First(&category, req.CategoryID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("category not found"))
		return
	}

	item := models.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		IsActive:    true,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

func (mc *MenuController) UpdateItem(c *gin.Context) {
	itemID, ok := parseUintParam(c, "item_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid item id"))
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		PriceCents  *int64  `json:"price_cents"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.PriceCents != nil {
		item.PriceCents = *req.PriceCents
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}
