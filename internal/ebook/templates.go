package ebook

import "text/template"

var (
	packageTmpl = template.Must(template.New("package").Parse(packageDoc))
	pageTmpl    = template.Must(template.New("page").Parse(pageDoc))
	navTmpl     = template.Must(template.New("nav").Parse(navDoc))
)

const containerDoc = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const packageDoc = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id" prefix="rendition: http://www.idpf.org/vocab/rendition/#">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="book-id">{{.Identifier}}</dc:identifier>
    <dc:title>{{.Title}}</dc:title>
    <dc:language>en</dc:language>
    <meta property="dcterms:modified">{{.Modified}}</meta>
    <meta property="rendition:layout">pre-paginated</meta>
    <meta property="rendition:orientation">portrait</meta>
    <meta property="rendition:spread">auto</meta>
    <meta name="cover" content="img-0001"/>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
{{- range .Pages}}
    <item id="{{.ImageID}}" href="{{.ImageHref}}" media-type="image/jpeg"{{if .Cover}} properties="cover-image"{{end}}/>
    <item id="{{.PageID}}" href="{{.PageHref}}" media-type="application/xhtml+xml"/>
{{- end}}
  </manifest>
  <spine>
{{- range .Pages}}
    <itemref idref="{{.PageID}}"/>
{{- end}}
  </spine>
</package>
`

const pageDoc = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>{{.Title}}</title>
  <meta name="viewport" content="width={{.Width}}, height={{.Height}}"/>
</head>
<body>
  <div><img src="{{.ImageHref}}" alt="{{.Alt}}"/></div>
</body>
</html>
`

const navDoc = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>{{.Title}}</title>
</head>
<body>
  <nav epub:type="toc">
    <ol>
      <li><a href="page_0001.xhtml">{{.Title}}</a></li>
    </ol>
  </nav>
</body>
</html>
`
