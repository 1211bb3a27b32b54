package channels

func loginPage(errMsg string) string {
	errBlock := ""
	if errMsg != "" {
		errBlock = `<div class="err">` + errMsg + `</div>`
	}
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>LenaAI Chat - Login</title>
<style>
body{font-family:system-ui,-apple-system,sans-serif;background:#fafafa;
  display:flex;align-items:center;justify-content:center;height:100vh;margin:0}
form{background:#fff;border:1px solid #ccc;border-radius:8px;padding:30px;width:300px}
h1{font-size:18px;margin:0 0 16px;text-align:center}
.err{background:#ffe5e5;border:1px solid #f5b5b5;color:#b00;border-radius:4px;
  padding:8px;font-size:13px;margin-bottom:12px}
input{width:100%;box-sizing:border-box;padding:8px;font-size:15px;margin-bottom:10px;
  border:1px solid #ccc;border-radius:4px}
button{width:100%;padding:9px;font-size:15px;border:none;border-radius:4px;
  background:#0084ff;color:#fff;cursor:pointer}
</style>
</head>
<body>
<form method="POST" action="/login">
  <h1>LenaAI Chat</h1>
  ` + errBlock + `
  <input name="username" type="text" placeholder="Username" autocomplete="username" required autofocus>
  <input name="password" type="password" placeholder="Password" autocomplete="current-password" required>
  <button type="submit">Sign in</button>
</form>
</body>
</html>`
}

var chatHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>LenaAI Chat</title>
<style>
*{box-sizing:border-box}
body{font-family:system-ui,-apple-system,sans-serif;margin:0;height:100vh;
  display:flex;flex-direction:column;max-width:600px;margin:0 auto;border:1px solid #ccc}
header{display:flex;justify-content:space-between;align-items:center;
  padding:10px;border-bottom:1px solid #ccc;background:#f5f5f5}
header .title{font-weight:600}
header button{cursor:pointer;border:none;background:#0084ff;color:#fff;
  padding:5px 10px;border-radius:4px}
#chat{flex:1;padding:10px;overflow-y:auto;display:flex;flex-direction:column;
  gap:10px;background:#fafafa}
.bubble{padding:10px;border-radius:8px;max-width:60%;white-space:pre-wrap;font-size:15px}
.user{align-self:flex-end;background:#DCF8C6}
.server{align-self:flex-start;background:#fff;border:1px solid #ccc}
.bubble audio{display:block;max-width:100%;margin-top:4px}
.duration{font-size:12px;color:#666}
.album{display:grid;grid-template-columns:repeat(2,1fr);gap:5px;max-width:250px;cursor:pointer}
.album .thumb{position:relative;width:100%;height:100%}
.album img{width:100%;height:100%;border-radius:4px;object-fit:cover;display:block}
.album .more{position:absolute;inset:0;background:rgba(0,0,0,.4);color:#fff;
  font-size:20px;display:flex;align-items:center;justify-content:center;border-radius:4px}
footer{display:flex;align-items:center;border-top:1px solid #ccc;padding:10px;
  background:#f5f5f5;gap:8px}
#input{flex:1;padding:8px;font-size:16px;border:1px solid #ccc;border-radius:4px}
#send{cursor:pointer;border:none;background:#25D366;color:#fff;
  padding:8px 14px;font-size:16px;border-radius:4px}
#mic{cursor:pointer;border:1px solid #ccc;background:#fff;font-size:18px;
  padding:6px 10px;border-radius:50%}
#mic.rec{background:#ff5252;border-color:#ff5252}
#overlay{position:fixed;inset:0;background:rgba(0,0,0,.7);display:none;
  justify-content:center;align-items:center;z-index:9999}
#modal{background:#fff;width:90%;max-width:600px;height:90%;display:flex;
  flex-direction:column;border-radius:8px;overflow:hidden}
#modal .mhead{display:flex;align-items:center;padding:10px;border-bottom:1px solid #ccc}
#modal .mhead button{border:none;background:none;font-size:20px;cursor:pointer}
#modal .mhead span{margin-left:10px;font-weight:bold}
#modal .imgs{flex:1;overflow-y:auto;padding:10px}
#modal .imgs img{width:100%;margin-bottom:10px;object-fit:cover;border-radius:4px}
#modal .mfoot{display:flex;justify-content:space-around;border-top:1px solid #ccc;padding:10px}
#modal .mfoot button{flex:1;margin:0 5px;padding:10px;font-size:16px;
  border-radius:4px;border:1px solid #ccc;cursor:pointer}
#notice{position:fixed;bottom:80px;left:50%;transform:translateX(-50%);
  background:#333;color:#fff;padding:8px 14px;border-radius:4px;font-size:13px;display:none}
</style>
</head>
<body>
<header>
  <div class="title">LenaAI Chat</div>
  <button id="clear">Clear chat</button>
</header>
<div id="chat"></div>
<footer>
  <input id="input" type="text" placeholder="Type a message...">
  <button id="mic" title="Hold to record">&#127908;</button>
  <button id="send">Send</button>
</footer>
<div id="overlay">
  <div id="modal">
    <div class="mhead"><button id="mback">&larr;</button><span id="mtitle"></span></div>
    <div class="imgs" id="mimgs"></div>
    <div class="mfoot">
      <button id="mlike">Like it</button>
      <button id="melse">Find something else</button>
    </div>
  </div>
</div>
<div id="notice"></div>
<script>
var chat=document.getElementById("chat"),
    input=document.getElementById("input"),
    sendBtn=document.getElementById("send"),
    micBtn=document.getElementById("mic"),
    overlay=document.getElementById("overlay"),
    openAlbum=null;

function notify(text){
  var n=document.getElementById("notice");
  n.textContent=text;n.style.display="block";
  setTimeout(function(){n.style.display="none"},3000);
}

function render(msg){
  var div=document.createElement("div");
  div.className="bubble "+msg.sender;
  if(msg.type==="text"){
    div.textContent=msg.content;
  }else if(msg.type==="voice"){
    var label=document.createElement("span");
    label.textContent="🎤 Voice message";
    div.appendChild(label);
    if(msg.duration){
      var d=document.createElement("span");
      d.className="duration";d.textContent=" "+msg.duration;
      div.appendChild(d);
    }
    if(msg.content){
      var audio=document.createElement("audio");
      audio.controls=true;audio.src=msg.content;
      div.appendChild(audio);
    }
  }else if(msg.type==="imageAlbum"){
    var grid=document.createElement("div");
    grid.className="album";
    var imgs=msg.album||[];
    var preview=imgs.slice(0,4);
    preview.forEach(function(img,idx){
      var wrap=document.createElement("div");
      wrap.className="thumb";
      var el=document.createElement("img");
      el.src=img.url;
      wrap.appendChild(el);
      if(idx===preview.length-1&&imgs.length>4){
        var more=document.createElement("div");
        more.className="more";more.textContent="+"+(imgs.length-4);
        wrap.appendChild(more);
      }
      grid.appendChild(wrap);
    });
    grid.onclick=function(){showAlbum(imgs,msg.property_id)};
    div.appendChild(grid);
  }
  chat.appendChild(div);
  chat.scrollTop=chat.scrollHeight;
}

function renderAll(msgs){msgs.forEach(render)}

function showAlbum(imgs,propertyId){
  openAlbum={images:imgs,propertyId:propertyId||""};
  document.getElementById("mtitle").textContent="You • "+imgs.length+" Photos";
  var box=document.getElementById("mimgs");
  box.innerHTML="";
  imgs.forEach(function(img){
    var el=document.createElement("img");
    el.src=img.full||img.url;
    box.appendChild(el);
  });
  overlay.style.display="flex";
}
function closeAlbum(){overlay.style.display="none";openAlbum=null}

function addUserBubble(text){
  var div=document.createElement("div");
  div.className="bubble user";div.textContent=text;
  chat.appendChild(div);chat.scrollTop=chat.scrollHeight;
}

function post(url,body,isForm){
  var opts={method:"POST"};
  if(isForm){opts.body=body}
  else{opts.headers={"Content-Type":"application/json"};opts.body=JSON.stringify(body)}
  return fetch(url,opts).then(function(r){
    if(r.status===401){window.location.href="/login";throw new Error("unauthorized")}
    if(!r.ok)throw new Error(r.statusText);
    return r.json();
  });
}

function send(){
  var text=input.value;
  if(!text.trim())return;
  input.value="";
  addUserBubble(text.trim());
  post("/chat/send",{message:text}).then(function(d){
    d.messages.filter(function(m){return m.sender==="server"}).forEach(render);
  }).catch(function(e){notify("Send failed: "+e.message)});
}

sendBtn.onclick=send;
input.onkeydown=function(e){if(e.key==="Enter")send()};

document.getElementById("clear").onclick=function(){
  post("/chat/clear",{}).then(function(){chat.innerHTML=""})
    .catch(function(e){notify("Clear failed: "+e.message)});
};

document.getElementById("mback").onclick=closeAlbum;
document.getElementById("melse").onclick=function(){
  closeAlbum();
  addUserBubble("Find something else");
  post("/chat/send",{message:"Find something else"}).then(function(d){
    d.messages.filter(function(m){return m.sender==="server"}).forEach(render);
  }).catch(function(e){notify("Send failed: "+e.message)});
};
document.getElementById("mlike").onclick=function(){
  if(!openAlbum)return;
  var pid=openAlbum.propertyId;
  closeAlbum();
  if(!pid){notify("No property attached to this album");return}
  post("/chat/like",{property_id:pid}).then(function(d){
    d.messages.forEach(function(m){
      if(m.sender==="user"){addUserBubble(m.content)}else{render(m)}
    });
  }).catch(function(e){notify("Like failed: "+e.message)});
};

// Press-and-hold recording: acquire on press, upload on release.
var recorder=null,chunks=[];
function startRec(){
  if(recorder)return;
  if(!navigator.mediaDevices||!window.MediaRecorder){
    notify("Voice recording not supported in this browser");
    return;
  }
  navigator.mediaDevices.getUserMedia({audio:true}).then(function(stream){
    chunks=[];
    recorder=new MediaRecorder(stream);
    recorder.ondataavailable=function(e){if(e.data.size>0)chunks.push(e.data)};
    recorder.onstop=function(){
      stream.getTracks().forEach(function(t){t.stop()});
      micBtn.classList.remove("rec");
      var blob=new Blob(chunks,{type:recorder.mimeType});
      recorder=null;
      if(blob.size===0)return;
      var form=new FormData();
      form.append("file",blob,"voice.webm");
      post("/chat/voice",form,true).then(function(d){
        d.messages.forEach(render);
      }).catch(function(e){notify("Voice upload failed: "+e.message)});
    };
    recorder.start();
    micBtn.classList.add("rec");
  }).catch(function(){
    notify("Microphone access denied");
  });
}
function stopRec(){if(recorder&&recorder.state==="recording")recorder.stop()}
micBtn.onmousedown=startRec;
micBtn.onmouseup=stopRec;
micBtn.onmouseleave=stopRec;
micBtn.ontouchstart=function(e){e.preventDefault();startRec()};
micBtn.ontouchend=function(e){e.preventDefault();stopRec()};

fetch("/chat/history").then(function(r){
  if(r.status===401){window.location.href="/login";return null}
  return r.json();
}).then(function(d){
  if(!d)return;
  d.messages.forEach(function(m){
    if(m.sender==="user"&&m.type==="text"){addUserBubble(m.content)}else{render(m)}
  });
});
input.focus();
</script>
</body>
</html>`
