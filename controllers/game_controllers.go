package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

type GameController struct {
	DB *gorm.DB
}

func NewGameController(db *gorm.DB) *GameController {
	return &GameController{DB: db}
}

// GetActiveGames is the guest-facing catalog of bookable games.
func (gc *GameController) GetActiveGames(c *gin.Context) {
	var games []models.Game
	if err := gc.DB.Where("is_active = ?", true).Order("name asc").Find(&games).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Games", games)
}

func (gc *GameController) GetActiveStations(c *gin.Context) {
	var stations []models.GameStation
	if err := gc.DB.Where("is_active = ?", true).Order("name asc").Find(&stations).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stations", stations)
}

func (gc *GameController) CreateGame(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	game := models.Game{Name: req.Name, Description: req.Description, IsActive: true}
	if err := gc.DB.Create(&game).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Game created", game)
}

func (gc *GameController) CreateStation(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	station := models.GameStation{Name: req.Name, IsActive: true}
	if err := gc.DB.Create(&station).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Station created", station)
}

func (gc *GameController) SetGameActive(c *gin.Context) {
	gameID, ok := parseUintParam(c, "game_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid game id"))
		return
	}
	gc.setActive(c, &models.Game{}, gameID, "Game updated")
}

func (gc *GameController) SetStationActive(c *gin.Context) {
	stationID, ok := parseUintParam(c, "station_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid station id"))
		return
	}
	gc.setActive(c, &models.GameStation{}, stationID, "Station updated")
}

func (gc *GameController) setActive(c *gin.Context, entity interface{}, id uint, message string) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := gc.DB.First(entity, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("record not found"))
		return
	}

	if err := gc.DB.Model(entity).Update("is_active", *req.IsActive).Error; err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, entity)
}
