package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *usecase.ProductUseCase
	LocationUC *usecase.LocationUseCase
	Stock      *ledger.StockLedger
	Movements  *ledger.MovementEngine
	Transfers  *ledger.TransferEngine
	Queries    *ledger.Queries
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Catálogo
	products := api.Group("/products")
	catalogHandler := NewCatalogHandler(deps.ProductUC)
	products.Post("/", catalogHandler.Create)
	products.Get("/", catalogHandler.List)
	products.Get("/:id", catalogHandler.GetByID)
	products.Put("/:id", catalogHandler.Update)
	products.Delete("/:id", catalogHandler.Delete)

	// Registro de ubicaciones
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", locationHandler.Create)
	locations.Get("/:locType", locationHandler.ListByType)
	locations.Get("/:locType/:locID", locationHandler.GetByRef)

	// Ledger: movimientos, traslados, fichas
	ledgerGroup := api.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.Stock, deps.Movements, deps.Transfers, deps.Queries)
	ledgerGroup.Post("/movements", ledgerHandler.RecordMovement)
	ledgerGroup.Get("/movements/:productID", ledgerHandler.ListMovements)
	ledgerGroup.Post("/transfers", ledgerHandler.ExecuteTransfer)
	ledgerGroup.Get("/transfers", ledgerHandler.ListTransfers)
	ledgerGroup.Get("/transfers/:id", ledgerHandler.GetTransfer)
	ledgerGroup.Get("/stock/:productID/:locType/:locID", ledgerHandler.GetStockItem)
}
