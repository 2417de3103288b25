package model

import "time"

// Cliente, Produto and Transacao form the relational schema questions are
// asked against. They live in PostgreSQL and are only written by cmd/migrate
// and cmd/seed.
type Cliente struct {
	Id           int       `gorm:"primaryKey;autoIncrement"`
	Nome         string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Saldo        float64   `gorm:"type:numeric(12,2);not null;default:0"`
	DataCadastro time.Time `gorm:"autoCreateTime"`

	Transacoes []Transacao `gorm:"foreignKey:ClienteId;constraint:OnDelete:CASCADE"`
}

func (Cliente) TableName() string {
	return "clientes"
}

type Produto struct {
	Id        int     `gorm:"primaryKey;autoIncrement"`
	Nome      string  `gorm:"type:varchar(100);not null"`
	Categoria string  `gorm:"type:varchar(50);not null;index"`
	Preco     float64 `gorm:"type:numeric(12,2);not null"`
	Estoque   int     `gorm:"not null;default:0"`
	Descricao string  `gorm:"type:text"`

	Transacoes []Transacao `gorm:"foreignKey:ProdutoId;constraint:OnDelete:CASCADE"`
}

func (Produto) TableName() string {
	return "produtos"
}

type Transacao struct {
	Id            int       `gorm:"primaryKey;autoIncrement"`
	ClienteId     int       `gorm:"not null;index"`
	ProdutoId     int       `gorm:"not null;index"`
	Quantidade    int       `gorm:"not null;default:1"`
	ValorTotal    float64   `gorm:"type:numeric(12,2);not null"`
	DataTransacao time.Time `gorm:"autoCreateTime;index"`
}

func (Transacao) TableName() string {
	return "transacoes"
}
