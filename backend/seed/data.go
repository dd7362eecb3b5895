package seed

import "eroz/backend/models"

type demoUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Sessions  int
}

var demoUsers = []demoUser{
	{"admin@eroz.com", "admin123", "Admin", "Eroz", models.RoleAdmin, 30},
	{"l.becker@eroz.com", "prof123", "Laurent", "Becker", models.RoleProf, 20},
	{"s.mercier@eroz.com", "prof123", "Sophie", "Mercier", models.RoleProf, 18},
	{"thomas.martin@edu.fr", "student123", "Thomas", "Martin", models.RoleStudent, 12},
	{"julie.dupont@edu.fr", "student123", "Julie", "Dupont", models.RoleStudent, 10},
	{"lucas.bernard@edu.fr", "student123", "Lucas", "Bernard", models.RoleStudent, 15},
	{"emma.petit@edu.fr", "student123", "Emma", "Petit", models.RoleStudent, 8},
	{"hugo.leroy@edu.fr", "student123", "Hugo", "Leroy", models.RoleStudent, 14},
	{"lea.moreau@edu.fr", "student123", "Léa", "Moreau", models.RoleStudent, 11},
	{"nathan.garcia@edu.fr", "student123", "Nathan", "Garcia", models.RoleStudent, 9},
	{"chloe.roux@edu.fr", "student123", "Chloé", "Roux", models.RoleStudent, 13},
}

type demoClassroom struct {
	Code        string
	Name        string
	Description string
	Owner       string
	Students    []string
}

var demoClassrooms = []demoClassroom{
	{
		Code:        "RADL3024",
		Name:        "Radiologie L3 2024",
		Description: "Introduction à l'imagerie médicale et analyse de clichés radiologiques pour les étudiants de 3ème année.",
		Owner:       "l.becker@eroz.com",
		Students:    []string{"thomas.martin@edu.fr", "julie.dupont@edu.fr", "lucas.bernard@edu.fr", "emma.petit@edu.fr"},
	},
	{
		Code:        "IMGM1024",
		Name:        "Imagerie Avancée M1 2024",
		Description: "Techniques avancées d'imagerie : IRM, scanner, et analyse par IA pour le diagnostic médical.",
		Owner:       "s.mercier@eroz.com",
		Students:    []string{"hugo.leroy@edu.fr", "lea.moreau@edu.fr", "nathan.garcia@edu.fr", "chloe.roux@edu.fr"},
	},
}

// progressPlan is how likely a student is to have completed or started a
// series, and the ranges of the generated results.
type progressPlan struct {
	CompletedBelow  float64
	InProgressBelow float64
	PrecisionMin    float64
	PrecisionMax    float64
	ScoreMin        int
	ScoreMax        int
	StartedDaysMin  int
	StartedDaysMax  int
	DoneDaysMax     int
	PendingDaysMax  int
}

type demoSeries struct {
	Code        string
	Title       string
	Description string
	Difficulty  string
	Classroom   string
	Images      int
	Plan        progressPlan
}

var demoSeriesList = []demoSeries{
	{
		Code:        "AXBR2024",
		Title:       "Anatomie cérébrale, coupes axiales",
		Description: "Identifier les structures cérébrales principales sur des coupes axiales IRM.",
		Difficulty:  models.DifficultyEasy,
		Classroom:   "RADL3024",
		Images:      3,
		Plan:        progressPlan{0.6, 0.85, 65, 95, 600, 950, 3, 7, 2, 3},
	},
	{
		Code:        "TUMO2024",
		Title:       "Pathologies tumorales, détection",
		Description: "Repérer et classifier les anomalies tumorales sur des IRM cérébrales.",
		Difficulty:  models.DifficultyHard,
		Classroom:   "RADL3024",
		Images:      4,
		Plan:        progressPlan{0.3, 0.6, 50, 85, 400, 800, 2, 5, 1, 3},
	},
	{
		Code:        "MEDL2024",
		Title:       "IRM médullaire, analyse fondamentale",
		Description: "Analyser les coupes IRM de la moelle épinière et identifier les pathologies courantes.",
		Difficulty:  models.DifficultyMedium,
		Classroom:   "IMGM1024",
		Images:      3,
		Plan:        progressPlan{0.5, 0.8, 60, 90, 500, 900, 3, 7, 2, 3},
	},
	{
		Code:        "THOX2024",
		Title:       "Scanner thoracique, interprétation",
		Description: "Interpréter des scanners thoraciques et identifier les anomalies pulmonaires.",
		Difficulty:  models.DifficultyMedium,
		Classroom:   "IMGM1024",
		Images:      5,
		Plan:        progressPlan{0.4, 0.7, 55, 88, 450, 850, 2, 6, 1, 2},
	},
}

var sampleImages = []string{
	"/uploads/irm_sample_01.jpg",
	"/uploads/irm_sample_02.jpg",
	"/uploads/irm_sample_03.jpg",
	"/uploads/irm_sample_04.jpg",
	"/uploads/irm_sample_05.jpg",
}
