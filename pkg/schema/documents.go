package schema

// Document is one retrievable description of the schema.
type Document struct {
	ID      string
	Table   string
	Content string
}

// DefaultDocuments describes the demo store tables and common query shapes.
func DefaultDocuments() []Document {
	return []Document{
		{
			ID:    "clientes",
			Table: "clientes",
			Content: `Tabela: clientes
Colunas:
- id (INTEGER, PRIMARY KEY, INDEXED): Identificador único
- nome (VARCHAR): Nome completo do cliente
- email (VARCHAR, UNIQUE, INDEXED): Email único do cliente
- saldo (NUMERIC): Saldo disponível na conta do cliente
- data_cadastro (TIMESTAMP): Data de cadastro

Índices: PRIMARY KEY (id), UNIQUE (email)
Relacionamentos: 1:N com transacoes (via cliente_id)

Queries otimizadas:
- Busca por email ou id usa índice
- Contagem total: SELECT COUNT(*) FROM clientes`,
		},
		{
			ID:    "produtos",
			Table: "produtos",
			Content: `Tabela: produtos
Colunas:
- id (INTEGER, PRIMARY KEY, INDEXED): Identificador único
- nome (VARCHAR): Nome do produto
- categoria (VARCHAR, INDEXED): Categoria do produto
- preco (NUMERIC): Preço unitário do produto
- estoque (INTEGER): Quantidade em estoque
- descricao (TEXT): Descrição detalhada do produto

Relacionamentos: 1:N com transacoes (via produto_id)

Categorias existentes:
- "Eletronicos" (Notebook, Smartphone, Tablet, Monitor)
- "Perifericos" (Teclado, Mouse)

Queries otimizadas:
- Filtro por categoria usa índice
- Ordenação por preco: DESC para mais caros, ASC para mais baratos
- Top N produtos: adicione LIMIT N`,
		},
		{
			ID:    "transacoes",
			Table: "transacoes",
			Content: `Tabela: transacoes (use nomes de colunas EXATOS)
Colunas:
- id (INTEGER, PRIMARY KEY)
- cliente_id (INTEGER, FK para clientes.id, INDEXED)
- produto_id (INTEGER, FK para produtos.id, INDEXED)
- quantidade (INTEGER): Quantidade comprada
- valor_total (NUMERIC): Valor total da transação
- data_transacao (TIMESTAMP, INDEXED): Data da compra

ATENÇÃO: a coluna de valor se chama "valor_total" (não "valor", não "preco").

Relacionamentos:
- N:1 com clientes (cliente_id -> clientes.id)
- N:1 com produtos (produto_id -> produtos.id)

Boas práticas:
- Tabela grande: sempre use LIMIT ou agregações
- Para somas: SUM(valor_total)

Queries otimizadas:
- Total gasto por cliente:
  SELECT c.nome, SUM(t.valor_total) AS total
  FROM clientes c
  JOIN transacoes t ON c.id = t.cliente_id
  GROUP BY c.id, c.nome`,
		},
		{
			ID: "examples",
			Content: `Exemplos de queries corretas:

1. Contar clientes:
   SELECT COUNT(*) FROM clientes;

2. Produtos mais caros (top 10):
   SELECT nome, preco FROM produtos ORDER BY preco DESC LIMIT 10;

3. Clientes que compraram notebook:
   SELECT DISTINCT c.nome
   FROM clientes c
   JOIN transacoes t ON c.id = t.cliente_id
   JOIN produtos p ON t.produto_id = p.id
   WHERE p.nome ILIKE '%notebook%';

4. Transações por produto:
   SELECT p.nome, COUNT(*) AS num_vendas, SUM(t.valor_total) AS receita
   FROM produtos p
   JOIN transacoes t ON p.id = t.produto_id
   GROUP BY p.id, p.nome
   ORDER BY receita DESC;`,
		},
	}
}
