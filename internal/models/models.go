package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"        json:"id"`
	Nickname     string `gorm:"size:100;uniqueIndex;not null"   json:"nickname"`
	Email        string `gorm:"size:100;uniqueIndex;not null"   json:"email"`
	PasswordHash string `gorm:"size:200;not null"               json:"-"`
	Role         string `gorm:"size:20;not null;default:user"   json:"role,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type MenuItem struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string `gorm:"not null;index"            json:"name"`
	Ingredients string `gorm:"not null"                  json:"ingredients"`
	Description string `gorm:"not null"                  json:"description"`
	Price       int    `gorm:"not null;check:price>=0"   json:"price"`
	Weight      int    `gorm:"not null;check:weight>=0"  json:"weight"`
	FileName    string `gorm:"not null"                  json:"file_name"`
	Active      bool   `gorm:"not null;default:true"     json:"active"`
}

func (MenuItem) TableName() string {
	return "menu"
}

type OrderList = map[string]int

type Order struct {
	ID        uint                          `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderList datatypes.JSONType[OrderList] `gorm:"not null"                  json:"order_list"`
	OrderTime time.Time                     `gorm:"not null"                  json:"order_time"`
	UserID    uint                          `gorm:"index;not null"            json:"user_id"`
	User      *User                         `gorm:"foreignKey:UserID"         json:"user,omitempty"`
}

type Reservation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	TypeTable string    `gorm:"size:20;not null;index"     json:"type_table"`
	TimeStart time.Time `gorm:"not null"                   json:"time_start"`
	UserID    uint      `gorm:"uniqueIndex;not null"       json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID"          json:"user,omitempty"`
}

// TableCapacity rows are locked during reservation admission so that
// count-then-insert for one table type is serialized.
type TableCapacity struct {
	TypeTable string `gorm:"primaryKey;size:20"  json:"type_table"`
	Capacity  int    `gorm:"not null"            json:"capacity"`
}

var TableTypes = []string{"1-2", "3-4", "4+"}

var DefaultCapacities = map[string]int{
	"1-2": 10,
	"3-4": 8,
	"4+":  4,
}

func AllModels() []any {
	return []any{&User{}, &MenuItem{}, &Order{}, &Reservation{}, &TableCapacity{}}
}
