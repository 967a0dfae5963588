package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Policy rules are static: payroll roles form a rank ladder
// (viewer < clerk < approver < admin) and higher ranks inherit lower ones.
var policyRules = [][]string{
	{"viewer", "statutory", "read"},
	{"viewer", "company", "read"},
	{"viewer", "employee", "read"},
	{"viewer", "adjustment", "read"},
	{"viewer", "payroll_run", "read"},
	{"viewer", "job", "read"},

	{"clerk", "employee", "write"},
	{"clerk", "adjustment", "write"},
	{"clerk", "payroll_run", "create"},
	{"clerk", "payroll_run", "compute"},
	{"clerk", "payroll_run", "delete"},
	{"clerk", "job", "cancel"},

	{"approver", "payroll_run", "approve"},
	{"approver", "payroll_run", "post"},
	{"approver", "payroll_run", "unpost"},

	{"admin", "statutory", "write"},
	{"admin", "company", "write"},
}

var roleInheritance = [][]string{
	{"clerk", "viewer"},
	{"approver", "clerk"},
	{"admin", "approver"},
}

// NewEnforcer builds the in-memory casbin enforcer with the static payroll
// role model. Role assignment itself is carried on the session token.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, rule := range policyRules {
		if _, err := e.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return nil, err
		}
	}
	for _, link := range roleInheritance {
		if _, err := e.AddGroupingPolicy(link[0], link[1]); err != nil {
			return nil, err
		}
	}

	return e, nil
}
