package config

import (
	"errors"
	"fmt"
	"log"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/domain"

	"gorm.io/gorm"
)

// seedDemoCatalog fills a dev database with a few books and members so
// the desk screens have something to show. Rows are matched by ISBN and
// member code, so reruns add nothing.
func seedDemoCatalog(db *gorm.DB) error {
	year := func(y int) *int { return &y }

	books := []models.Book{
		{Title: "Laskar Pelangi", Author: "Andrea Hirata", ISBN: "9789793062792", Category: "Novel", Publisher: "Bentang Pustaka", PublishedYear: year(2005), RackLocation: "A-01", TotalCopy: 5},
		{Title: "Bumi Manusia", Author: "Pramoedya Ananta Toer", ISBN: "9789799731234", Category: "Novel", Publisher: "Hasta Mitra", PublishedYear: year(1980), RackLocation: "A-02", TotalCopy: 3},
		{Title: "Filosofi Teras", Author: "Henry Manampiring", ISBN: "9786024125189", Category: "Filsafat", Publisher: "Kompas", PublishedYear: year(2018), RackLocation: "B-04", TotalCopy: 2},
		{Title: "Matematika SMA Kelas X", Author: "Sukino", ISBN: "9789790335608", Category: "Pelajaran", Publisher: "Erlangga", PublishedYear: year(2016), RackLocation: "C-10", TotalCopy: 10},
	}

	for i := range books {
		b := books[i]
		var existing models.Book
		err := db.Where("isbn = ?", b.ISBN).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		b.AvailableCopy = b.TotalCopy
		b.Status = string(domain.BookAvailable)
		if err := db.Create(&b).Error; err != nil {
			return err
		}
		barcode := fmt.Sprintf("B-%d-%04d", b.CreatedAt.Year(), b.ID)
		if err := db.Model(&b).Update("barcode", barcode).Error; err != nil {
			return err
		}
		log.Printf("   Created book: %s", b.Title)
	}

	members := []models.Member{
		{MemberCode: "MBR-DEMO-0001", Name: "Ayu Lestari", Kelas: "X IPA 1", JenisKelamin: "Perempuan"},
		{MemberCode: "MBR-DEMO-0002", Name: "Budi Santoso", Kelas: "XI IPS 2", JenisKelamin: "Laki-laki"},
		{MemberCode: "MBR-DEMO-0003", Name: "Citra Dewi", Kelas: "XII IPA 3", JenisKelamin: "Perempuan"},
	}

	for i := range members {
		m := members[i]
		var existing models.Member
		err := db.Where("member_code = ?", m.MemberCode).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m.Status = string(domain.MemberActive)
		if err := db.Create(&m).Error; err != nil {
			return err
		}
		log.Printf("   Created member: %s", m.Name)
	}

	log.Println("✅ Demo catalog seeded")
	return nil
}
