package web

import (
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/irisvault/internal/server/models"
)

// The pages below are deliberately plain. The dashboards and forms exist to
// drive the vault; presentation is not this service's concern.

var pages = template.Must(template.New("pages").Parse(`
{{define "layout_top"}}<!DOCTYPE html>
<html>
<head><title>IrisVault</title></head>
<body>
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
{{end}}

{{define "layout_bottom"}}</body>
</html>
{{end}}

{{define "main"}}{{template "layout_top" .}}
<h1>IrisVault</h1>
<p><a href="/admin_login">Admin login</a></p>
<p><a href="/user_login">User login</a></p>
{{template "layout_bottom" .}}{{end}}

{{define "admin_login"}}{{template "layout_top" .}}
<h1>Admin login</h1>
<form method="post" action="/admin_login" enctype="multipart/form-data">
  <input type="password" name="password" placeholder="Admin secret">
  <input type="file" name="iris">
  <button type="submit">Log in</button>
</form>
{{template "layout_bottom" .}}{{end}}

{{define "user_login"}}{{template "layout_top" .}}
<h1>User login</h1>
<form method="post" action="/user_login" enctype="multipart/form-data">
  <input type="text" name="username" placeholder="Username">
  <input type="file" name="iris">
  <button type="submit">Log in</button>
</form>
{{template "layout_bottom" .}}{{end}}

{{define "admin_dashboard"}}{{template "layout_top" .}}
<h1>Admin dashboard</h1>
<table>
  <tr><th>Username</th><th>Name</th><th>Files</th><th>Total bytes</th></tr>
  {{range .Accounts}}
  <tr>
    <td>{{.Username}}</td><td>{{.DisplayName}}</td>
    <td>{{len .Files}}</td><td>{{.TotalSize}}</td>
  </tr>
  {{end}}
</table>
<h2>Add user</h2>
<form method="post" action="/add_user" enctype="multipart/form-data">
  <input type="text" name="display_name" placeholder="Display name">
  <input type="text" name="username" placeholder="Username">
  <input type="file" name="iris">
  <button type="submit">Add</button>
</form>
<h2>Delete user</h2>
<form method="post" action="/delete_user">
  <input type="text" name="username" placeholder="Username">
  <button type="submit">Delete</button>
</form>
<form method="post" action="/logout"><button type="submit">Log out</button></form>
{{template "layout_bottom" .}}{{end}}

{{define "user_dashboard"}}{{template "layout_top" .}}
<h1>{{.Account.DisplayName}}</h1>
<table>
  <tr><th>File</th><th>Bytes</th><th></th><th></th></tr>
  {{range .Account.Files}}
  <tr>
    <td>{{.Name}}</td><td>{{.SizeBytes}}</td>
    <td><a href="/view/{{.Name}}">View</a></td>
    <td><a href="/delete_file/{{.Name}}">Delete</a></td>
  </tr>
  {{end}}
</table>
<h2>Upload</h2>
<form method="post" action="/user_upload_file" enctype="multipart/form-data">
  <input type="file" name="file">
  <button type="submit">Upload</button>
</form>
<form method="post" action="/logout"><button type="submit">Log out</button></form>
{{template "layout_bottom" .}}{{end}}

{{define "view_pdf"}}{{template "layout_top" .}}
<p><a href="/user_dashboard">Back</a></p>
<iframe src="/inline-pdf/{{.StreamName}}" style="width:100%;height:90vh;border:none"></iframe>
{{template "layout_bottom" .}}{{end}}

{{define "view_img"}}{{template "layout_top" .}}
<p><a href="/user_dashboard">Back</a></p>
<img src="/inline-img/{{.StreamName}}" alt="inline image" style="max-width:100%">
{{template "layout_bottom" .}}{{end}}
`))

type pageData struct {
	Notice     string
	Accounts   []*models.Account
	Account    *models.Account
	StreamName string
}

func renderPage(c *fiber.Ctx, name string, data pageData) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return pages.ExecuteTemplate(c, name, data)
}
