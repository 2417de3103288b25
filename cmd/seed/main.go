package main

import (
	"log"
	"os"

	"sql-agent-be/internal/model"
	"sql-agent-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database %s: %v", database.MaskDSN(dsn), err)
		os.Exit(1)
	}
	color.Green("Connected to %s", database.MaskDSN(dsn))

	var count int64
	if err := db.Model(&model.Cliente{}).Count(&count).Error; err != nil {
		color.Red("Error: Failed to inspect clientes (run cmd/migrate first): %v", err)
		os.Exit(1)
	}
	if count > 0 {
		color.Yellow("Database already seeded, skipping...")
		return
	}

	if err := db.Transaction(seed); err != nil {
		color.Red("Error: Seeding failed: %v", err)
		os.Exit(1)
	}

	color.Green("Database seeded successfully")
}

func seed(tx *gorm.DB) error {
	clientes := []*model.Cliente{
		{Nome: "João Silva", Email: "joao@email.com", Saldo: 5000.00},
		{Nome: "Maria Santos", Email: "maria@email.com", Saldo: 3000.00},
		{Nome: "Pedro Oliveira", Email: "pedro@email.com", Saldo: 7500.00},
		{Nome: "Ana Costa", Email: "ana@email.com", Saldo: 2000.00},
		{Nome: "Carlos Souza", Email: "carlos@email.com", Saldo: 4500.00},
	}
	if err := tx.Create(&clientes).Error; err != nil {
		return err
	}
	color.Cyan("Inserted %d clientes", len(clientes))

	produtos := []*model.Produto{
		{Nome: "Notebook", Categoria: "Eletronicos", Preco: 3500.00, Estoque: 10, Descricao: "Notebook de alta performance"},
		{Nome: "Smartphone", Categoria: "Eletronicos", Preco: 2000.00, Estoque: 15, Descricao: "Smartphone com camera avancada"},
		{Nome: "Tablet", Categoria: "Eletronicos", Preco: 1500.00, Estoque: 20, Descricao: "Tablet para produtividade"},
		{Nome: "Mouse", Categoria: "Perifericos", Preco: 50.00, Estoque: 50, Descricao: "Mouse ergonomico"},
		{Nome: "Teclado", Categoria: "Perifericos", Preco: 150.00, Estoque: 30, Descricao: "Teclado mecanico"},
		{Nome: "Monitor", Categoria: "Perifericos", Preco: 800.00, Estoque: 12, Descricao: "Monitor 27 polegadas"},
	}
	if err := tx.Create(&produtos).Error; err != nil {
		return err
	}
	color.Cyan("Inserted %d produtos", len(produtos))

	// Indexes into the slices above, so generated ids are never assumed.
	purchases := []struct {
		cliente, produto, quantidade int
	}{
		{0, 0, 1}, {0, 3, 2}, {1, 1, 1}, {2, 0, 1},
		{2, 5, 2}, {3, 2, 1}, {4, 1, 1}, {4, 4, 1},
	}

	transacoes := make([]*model.Transacao, 0, len(purchases))
	for _, p := range purchases {
		produto := produtos[p.produto]
		transacoes = append(transacoes, &model.Transacao{
			ClienteId:  clientes[p.cliente].Id,
			ProdutoId:  produto.Id,
			Quantidade: p.quantidade,
			ValorTotal: produto.Preco * float64(p.quantidade),
		})
	}
	if err := tx.Create(&transacoes).Error; err != nil {
		return err
	}
	color.Cyan("Inserted %d transacoes", len(transacoes))

	return nil
}
