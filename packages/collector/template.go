package collector

import "html/template"

type richFailure struct {
	Name      string
	Traceback string
}

type richData struct {
	FailPercent int
	PassPercent int
	Text        string
	Failures    []richFailure
}

var richTemplate = template.Must(template.New("summary").Parse(richHTML))

const richHTML = `<style type="text/css">
    span.nbtestfailedfunc {
        font-family: monospace;
        font-weight: bold;
    }
    div.nbtestresults {
        width: 100%;
    }
    div.nbtestfailbar {
        background: red;
        float: left;
        padding: 1ex 0px 1ex 0px;
    }
    div.nbtestpassbar {
        background: green;
        float: left;
        padding: 1ex 0px 1ex 0px;
    }
    div.nbtestfailbanner {
        width: 75%;
        background: red;
        padding: 0.5ex 0em 0.5ex 1em;
        margin-top: 1ex;
        margin-bottom: 0px;
    }
    pre.nbtesttraceback {
        background: pink;
        padding-left: 1em;
        margin-left: 0px;
        margin-top: 0px;
        display: none;
    }
</style>
<script>
    setTimeout(function () {
        document.querySelectorAll('a.nbtestfailtoggle').forEach(function (link) {
            link.onclick = function (event) {
                event.preventDefault();
                var tb = link.closest('div.nbtestfailure').querySelector('pre.nbtesttraceback');
                tb.style.display = tb.style.display === 'block' ? 'none' : 'block';
            };
        });
    }, 0);
</script>
<div class="nbtestresults">
  <div class="nbtestfailbar" style="width: {{.FailPercent}}%">&nbsp;</div>
  <div class="nbtestpassbar" style="width: {{.PassPercent}}%">&nbsp;</div>
  {{.Text}}
</div>
{{- range .Failures}}
<div class="nbtestfailure">
  <div class="nbtestfailbanner">
    failed: <span class="nbtestfailedfunc">{{.Name}}</span>
    [<a class="nbtestfailtoggle" href="#">toggle traceback</a>]
  </div>
  <pre class="nbtesttraceback">{{.Traceback}}</pre>
</div>
{{- end}}
`
