package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// GetAllTables lists tables with their currently open session, if any.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("code asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}

	type tableView struct {
		models.Table
		ActiveSession *models.TableSession `json:"active_session,omitempty"`
	}

	views := make([]tableView, 0, len(tables))
	for _, t := range tables {
		view := tableView{Table: t}
		var session models.TableSession
		err := tc.DB.Where("table_id = ? AND ended_at IS NULL", t.ID).
			First(&session).Error
		if err == nil {
			view.ActiveSession = &session
		}
		views = append(views, view)
	}

	utils.RespondJSON(c, http.StatusOK, "Tables", views)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		IsActive bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{Code: req.Code, IsActive: req.IsActive}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusConflict, errors.New("table code already exists"))
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// SetActive toggles whether a table accepts guest traffic.
func (tc *TableController) SetActive(c *gin.Context) {
	tableID, ok := parseUintParam(c, "table_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	table.IsActive = *req.IsActive
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}
