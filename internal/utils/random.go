package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

var Departments = []string{"设施维护", "电气", "暖通空调", "给排水", "信息网络"}

var skills = []string{"焊接", "电路检修", "空调维护", "管道疏通", "网络布线", "消防设备", "电梯保养", "木工"}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

func GenerateRandomRole() domain.Role {
	return domain.Roles[rand.Intn(len(domain.Roles))]
}

func GenerateRandomDepartment() string {
	return Departments[rand.Intn(len(Departments))]
}

var digits = "0123456789"

// EmailLocalPartFromChineseName 把中文姓名转成全拼，例如 张伟 -> zhangwei
func EmailLocalPartFromChineseName(chineseName string) string {
	local := ""
	for _, p := range pinyin.LazyConvert(chineseName, nil) {
		local += p
	}
	return local
}

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) domain.NewUser {
	name := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(name)

	n := rand.Intn(3) + 1
	userSkills := make([]string, 0, n)
	for _, i := range rand.Perm(len(skills))[:n] {
		userSkills = append(userSkills, skills[i])
	}

	return domain.NewUser{
		Name:           name,
		Email:          username + "@" + emailDomainName,
		Password:       password,
		Role:           GenerateRandomRole(),
		Phone:          "138" + GenerateRandomDigits(8),
		Skills:         userSkills,
		Department:     GenerateRandomDepartment(),
		Position:       "维修技术员",
		EmploymentType: "full_time",
	}
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

func GenerateRandomDigits(length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = digits[rand.Intn(len(digits))]
	}
	return string(out)
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}
