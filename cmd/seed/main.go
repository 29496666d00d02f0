package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/udonggeum-checkout/config"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/ikkim/udonggeum-checkout/pkg/redis"
	"github.com/shopspring/decimal"
)

func main() {
	filePath := flag.String("file", "", "catalog workbook (.xlsx) to import")
	templatePath := flag.String("template", "", "write an example catalog workbook to this path and exit")
	assumeYes := flag.Bool("y", false, "import without confirmation")
	flag.Parse()

	if *templatePath != "" {
		if err := writeTemplate(*templatePath); err != nil {
			log.Fatal("Failed to write template:", err)
		}
		fmt.Printf("Template written: %s\n", *templatePath)
		return
	}

	if *filePath == "" {
		log.Fatal("Usage: go run cmd/seed/main.go -file <xlsx_file_path> | -template <xlsx_file_path>")
	}

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", *filePath)
	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	docs, err := service.ReadCatalogWorkbook(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Total products to import: %d\n", len(docs))

	// 사용자 확인
	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	// 시드는 항상 DB에 저장하며 캐시는 사용하지 않음
	catalogService := service.NewCatalogService(
		service.NewDBCatalogSource(repository.NewCatalogRepository(db.GetDB())),
		redis.NewCatalogCache(nil, 0),
		0,
	)

	imported, failed := 0, 0
	for _, doc := range docs {
		if _, err := catalogService.Import(context.Background(), doc, "json"); err != nil {
			failed++
			fmt.Printf("  [skip] %s: %v\n", doc.ProductID, err)
			continue
		}
		imported++
	}

	fmt.Println("Import completed!")
	fmt.Printf("Imported: %d, Failed: %d\n", imported, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func writeTemplate(path string) error {
	yes, no := true, false
	price := decimal.NewFromInt(129000)
	original := decimal.NewFromInt(149000)
	largePrice := decimal.NewFromInt(139000)

	doc := &service.CatalogDocument{
		ProductID:   "ring-001",
		Title:       "14K 데일리 반지",
		StoreID:     "store-001",
		MaxQuantity: 5,
		Dimensions: []service.DimensionDocument{
			{
				ID:   "color",
				Name: "색상",
				Options: []service.OptionDocument{
					{ID: "yellow", Label: "옐로우골드", IsDefault: true},
					{ID: "rose", Label: "로즈골드"},
				},
			},
			{
				ID:   "size",
				Name: "사이즈",
				Options: []service.OptionDocument{
					{ID: "11", Label: "11호", IsDefault: true},
					{ID: "13", Label: "13호"},
					{ID: "15", Label: "15호", BaseAvailable: &no},
				},
			},
		},
		Rules: []service.RuleDocument{
			{Options: map[string]string{"color": "yellow", "size": "11"}, Available: &yes, Price: price, OriginalPrice: &original},
			{Options: map[string]string{"color": "yellow", "size": "13"}, Available: &yes, Price: largePrice},
			{Options: map[string]string{"color": "rose", "size": "11"}, Available: &yes, Price: price, StockTag: "sold_out"},
			{Options: map[string]string{"color": "rose", "size": "13"}, Available: &no, Price: largePrice},
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return service.WriteCatalogWorkbook(f, []*service.CatalogDocument{doc})
}
