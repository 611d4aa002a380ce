package domain

import (
	"slices"
	"time"
)

type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order"`
}

type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type GeoLocation struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address,omitempty"`
}

type UsedInventory struct {
	InventoryID string `json:"inventoryId"`
	Quantity    int    `json:"quantity"`
}

type WorkLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Note      string    `json:"note"`
	Hours     float64   `json:"hours"`
	CreatedAt time.Time `json:"createdAt"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Signature struct {
	SignedBy string    `json:"signedBy"`
	DataURL  string    `json:"dataUrl"`
	SignedAt time.Time `json:"signedAt"`
}

type Job struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Status            JobStatus       `json:"status"`
	Departments       []string        `json:"departments"`
	Creator           UserSnapshot    `json:"creator"`
	AssignedEmployees []UserSnapshot  `json:"assignedEmployees"`
	LeadTechnician    *UserSnapshot   `json:"leadTechnician,omitempty"`
	Tasks             []Task          `json:"tasks"`
	Attachments       []Attachment    `json:"attachments"`
	StartDate         *time.Time      `json:"startDate,omitempty"`
	EndDate           *time.Time      `json:"endDate,omitempty"`
	Location          *GeoLocation    `json:"location,omitempty"`
	UsedInventory     []UsedInventory `json:"usedInventory,omitempty"`
	WorkLogs          []WorkLog       `json:"workLogs,omitempty"`
	Customer          *Customer       `json:"customer,omitempty"`
	Signature         *Signature      `json:"signature,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (j *Job) IsAssigned(userID string) bool {
	for _, e := range j.AssignedEmployees {
		if e.ID == userID {
			return true
		}
	}
	return false
}

func (j *Job) IsCreator(userID string) bool {
	return j.Creator.ID == userID
}

func (j *Job) IsLeadTechnician(userID string) bool {
	return j.LeadTechnician != nil && j.LeadTechnician.ID == userID
}

func (j *Job) InDepartment(department string) bool {
	return department != "" && slices.Contains(j.Departments, department)
}

// Clone 返回深拷贝，store 对外只暴露副本
func (j *Job) Clone() Job {
	c := *j
	c.Departments = slices.Clone(j.Departments)
	c.AssignedEmployees = slices.Clone(j.AssignedEmployees)
	c.Tasks = slices.Clone(j.Tasks)
	c.Attachments = slices.Clone(j.Attachments)
	c.UsedInventory = slices.Clone(j.UsedInventory)
	c.WorkLogs = slices.Clone(j.WorkLogs)
	if j.LeadTechnician != nil {
		lt := *j.LeadTechnician
		c.LeadTechnician = &lt
	}
	if j.StartDate != nil {
		t := *j.StartDate
		c.StartDate = &t
	}
	if j.EndDate != nil {
		t := *j.EndDate
		c.EndDate = &t
	}
	if j.Location != nil {
		l := *j.Location
		c.Location = &l
	}
	if j.Customer != nil {
		cu := *j.Customer
		c.Customer = &cu
	}
	if j.Signature != nil {
		s := *j.Signature
		c.Signature = &s
	}
	return c
}

type NewJob struct {
	Title               string
	Description         string
	Status              JobStatus // 会被忽略，新建工单一律为 pending
	Departments         []string
	CreatorID           string
	AssignedEmployeeIDs []string
	LeadTechnicianID    string
	Tasks               []Task
	Attachments         []Attachment
	StartDate           *time.Time
	EndDate             *time.Time
	Location            *GeoLocation
	Customer            *Customer
}

// JobPatch 中为 nil 的字段表示不修改。
// LeadTechnicianID 指向空字符串时表示移除负责人。
type JobPatch struct {
	Title               *string
	Description         *string
	Status              *JobStatus
	Departments         *[]string
	CreatorID           *string
	AssignedEmployeeIDs *[]string
	LeadTechnicianID    *string
	Tasks               *[]Task
	Attachments         *[]Attachment
	StartDate           *time.Time
	EndDate             *time.Time
	Location            *GeoLocation
	WorkLogs            *[]WorkLog
	Customer            *Customer
	Signature           *Signature
}
